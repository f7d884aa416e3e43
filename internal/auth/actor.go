package auth

// Actor is the authenticated identity behind a request. Every service
// operation that mutates owned state takes an explicit Actor instead of
// reading ambient session state.
type Actor struct {
	ID       string
	Username string
	Email    string
	Image    string
	IsAdmin  bool
	IsDoctor bool
}
