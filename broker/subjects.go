package broker

// Wildcard subjects consumers subscribe to. Events are published on their
// concrete type (task.created, user.updated, ...) so a single wildcard
// subscription covers a whole entity.
const (
	TaskSubject = "task.*"
	UserSubject = "user.*"
)
