package routes

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"taskdeck/database"
	"taskdeck/models"
	"taskdeck/services"

	"github.com/gin-gonic/gin"
)

func RegisterTaskRoutes(group *gin.RouterGroup, db *database.Database, taskService services.TaskServiceInterface) {
	group.GET("/tasks", func(c *gin.Context) { GetTasks(c, db, taskService) })
	group.POST("/tasks", func(c *gin.Context) { CreateTask(c, db, taskService) })
	group.GET("/tasks/:id", func(c *gin.Context) { GetTaskById(c, db, taskService) })
	group.PUT("/tasks/:id", func(c *gin.Context) { UpdateTask(c, db, taskService) })
	group.DELETE("/tasks/:id", func(c *gin.Context) { DeleteTask(c, db, taskService) })
}

type createTaskRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	DueDate     time.Time `json:"due_date" binding:"required"`
}

type updateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

func CreateTask(c *gin.Context, db *database.Database, taskService services.TaskServiceInterface) {
	userID, ok := authenticatedUser(c)
	if !ok {
		return
	}

	input, err := bindCreateInput(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	createdTask, err := taskService.CreateTask(db, userID, input)
	if err != nil {
		if errors.Is(err, services.ErrAttachmentStorage) {
			// The task exists but the upload failed; return both facts.
			c.JSON(http.StatusBadGateway, gin.H{
				"error": "Task was created but the attachment upload failed",
				"task":  createdTask,
			})
			return
		}
		if errors.Is(err, services.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, createdTask)
}

func GetTaskById(c *gin.Context, db *database.Database, taskService services.TaskServiceInterface) {
	id := c.Param("id")

	userID, ok := authenticatedUser(c)
	if !ok {
		return
	}

	task, err := taskService.GetTaskById(db, id)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if task.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to access this task"})
		return
	}

	c.JSON(http.StatusOK, task)
}

func UpdateTask(c *gin.Context, db *database.Database, taskService services.TaskServiceInterface) {
	id := c.Param("id")

	userID, ok := authenticatedUser(c)
	if !ok {
		return
	}

	// Verify ownership before update
	existingTask, err := taskService.GetTaskById(db, id)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if existingTask.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to update this task"})
		return
	}

	input, err := bindUpdateInput(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updatedTask, err := taskService.UpdateTask(db, id, input)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		if errors.Is(err, services.ErrAttachmentStorage) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Attachment upload failed"})
			return
		}
		if errors.Is(err, services.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, updatedTask)
}

func DeleteTask(c *gin.Context, db *database.Database, taskService services.TaskServiceInterface) {
	id := c.Param("id")

	userID, ok := authenticatedUser(c)
	if !ok {
		return
	}

	// Verify ownership before delete
	existingTask, err := taskService.GetTaskById(db, id)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if existingTask.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to delete this task"})
		return
	}

	if err := taskService.DeleteTask(db, id); err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusNoContent, gin.H{})
}

func GetTasks(c *gin.Context, db *database.Database, taskService services.TaskServiceInterface) {
	userID, ok := authenticatedUser(c)
	if !ok {
		return
	}

	params := map[string]interface{}{
		"user_id": userID.String(),
	}

	if status := c.Query("status"); status != "" {
		params["status"] = status
	}

	if priority := c.Query("priority"); priority != "" {
		params["priority"] = priority
	}

	tasks, err := taskService.GetTasks(db, params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// bindCreateInput accepts either a JSON body or a multipart form with an
// optional attachment file part.
func bindCreateInput(c *gin.Context) (models.CreateTaskInput, error) {
	if !isMultipart(c) {
		var request createTaskRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			return models.CreateTaskInput{}, err
		}
		return models.CreateTaskInput{
			Title:       request.Title,
			Description: request.Description,
			Status:      models.TaskStatus(request.Status),
			Priority:    models.TaskPriority(request.Priority),
			DueDate:     request.DueDate,
		}, nil
	}

	dueDate, err := parseDueDate(c.PostForm("due_date"))
	if err != nil {
		return models.CreateTaskInput{}, err
	}

	input := models.CreateTaskInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Status:      models.TaskStatus(c.PostForm("status")),
		Priority:    models.TaskPriority(c.PostForm("priority")),
		DueDate:     dueDate,
	}

	if input.Title == "" {
		return models.CreateTaskInput{}, errors.New("title is required")
	}

	file, err := formAttachment(c)
	if err != nil {
		return models.CreateTaskInput{}, err
	}
	input.Attachment = file

	return input, nil
}

func bindUpdateInput(c *gin.Context) (models.UpdateTaskInput, error) {
	if !isMultipart(c) {
		var request updateTaskRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			return models.UpdateTaskInput{}, err
		}
		input := models.UpdateTaskInput{
			Title:       request.Title,
			Description: request.Description,
			DueDate:     request.DueDate,
		}
		if request.Status != nil {
			status := models.TaskStatus(*request.Status)
			input.Status = &status
		}
		if request.Priority != nil {
			priority := models.TaskPriority(*request.Priority)
			input.Priority = &priority
		}
		return input, nil
	}

	var input models.UpdateTaskInput
	if title, exists := c.GetPostForm("title"); exists {
		input.Title = &title
	}
	if description, exists := c.GetPostForm("description"); exists {
		input.Description = &description
	}
	if status, exists := c.GetPostForm("status"); exists {
		s := models.TaskStatus(status)
		input.Status = &s
	}
	if priority, exists := c.GetPostForm("priority"); exists {
		p := models.TaskPriority(priority)
		input.Priority = &p
	}
	if rawDueDate, exists := c.GetPostForm("due_date"); exists {
		dueDate, err := parseDueDate(rawDueDate)
		if err != nil {
			return models.UpdateTaskInput{}, err
		}
		input.DueDate = &dueDate
	}

	file, err := formAttachment(c)
	if err != nil {
		return models.UpdateTaskInput{}, err
	}
	input.Attachment = file

	return input, nil
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// formAttachment reads the optional "attachment" file part into memory.
func formAttachment(c *gin.Context) (*models.FileUpload, error) {
	fileHeader, err := c.FormFile("attachment")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	return readUpload(fileHeader)
}

func readUpload(fileHeader *multipart.FileHeader) (*models.FileUpload, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &models.FileUpload{
		Name:        fileHeader.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

func parseDueDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("due_date is required")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
