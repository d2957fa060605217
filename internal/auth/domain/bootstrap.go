package domain

// BootstrapData seeds an empty installation: the first branch and the
// superadmin account that will administer it.
type BootstrapData struct {
	BranchName    string
	BranchCode    string
	AdminEmail    string
	AdminName     string
	AdminPassword string
}
