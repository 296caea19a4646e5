package db

// RetrieveQueryParams control paging and sorting of list queries.
type RetrieveQueryParams struct {
	Offset       int
	Count        int
	SortBy       string
	SortInverted bool
}

// Store is the durable storage boundary of the collaboration core. All
// operations are synchronous and failable; backend I/O errors surface to
// the caller as retryable failures.
type Store interface {
	Connect() error
	Close() error

	GetUser(userID int) (User, error)
	GetUserByEmail(email string) (User, error)
	GetUsers(params RetrieveQueryParams) ([]User, error)
	CreateUser(user User) (User, error)

	CreateProject(project Project, creatorUserID int) (Project, error)
	GetProject(projectID int) (Project, error)
	GetProjects(userID int) ([]Project, error)
	DeleteProject(projectID int) error

	CreateProjectUser(projectUser ProjectUser) (ProjectUser, error)
	GetProjectUser(projectID int, userID int) (ProjectUser, error)
	GetProjectUsers(projectID int) ([]User, error)

	CreateProjectInvite(invite ProjectInvite) (ProjectInvite, error)
	GetProjectInvite(inviteID int) (ProjectInvite, error)
	GetPendingInvite(projectID int, receiverUserID int) (ProjectInvite, error)
	GetUserInvites(receiverUserID int) ([]ProjectInviteWithDetails, error)

	// ResolveProjectInvite moves a pending invite to a terminal status as
	// a compare-and-set: it fails with ErrInviteResolved unless the invite
	// is still pending at the moment of the update.
	ResolveProjectInvite(inviteID int, status ProjectInviteStatus) (ProjectInvite, error)

	CreateChatMessage(message ChatMessage) (ChatMessage, error)

	// GetChatMessages returns up to limit most recent messages of the
	// project in chronological order.
	GetChatMessages(projectID int, limit int) ([]ChatMessage, error)
}
