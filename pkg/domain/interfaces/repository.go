package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Issue() IssueRepository
	Feedback() FeedbackRepository

	Close() error
}
