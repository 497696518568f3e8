package command

// Field names targeted by the copy commands.
const (
	FieldPassword = "Password"
	FieldUserName = "UserName"
	FieldURL      = "URL"
)

// Command is a parsed command line. The set of implementations is closed;
// consumers switch over the concrete types.
type Command interface {
	// Name is the command word as typed.
	Name() string

	command()
}

// ListDir lists a group's children, or prints an entry's title.
type ListDir struct {
	Path string
}

// ChangeDir moves the current group.
type ChangeDir struct {
	Path string
}

// Show prints an entry's fields.
type Show struct {
	Entry      string
	ShowHidden bool
	TOTP       bool
}

// Copy puts one field of an entry on the clipboard.
type Copy struct {
	Entry string
	Field string
}

// ClearClipboard empties the clipboard.
type ClearClipboard struct{}

// Open decodes a database file and makes it the session's vault.
type Open struct {
	Path        string
	Password    string
	HasPassword bool
}

// Close drops the open vault.
type Close struct{}

// PrintWorkingGroup prints the current group path.
type PrintWorkingGroup struct{}

// Help lists commands, or describes Topic when set.
type Help struct {
	Topic string
}

// History prints recent command lines.
type History struct{}

// Exit ends the session.
type Exit struct{}

func (ListDir) Name() string           { return "ls" }
func (ChangeDir) Name() string         { return "cd" }
func (Show) Name() string              { return "show" }
func (ClearClipboard) Name() string    { return "cx" }
func (Open) Name() string              { return "open" }
func (Close) Name() string             { return "close" }
func (PrintWorkingGroup) Name() string { return "pwd" }
func (Help) Name() string              { return "help" }
func (History) Name() string           { return "history" }
func (Exit) Name() string              { return "exit" }

func (c Copy) Name() string {
	switch c.Field {
	case FieldUserName:
		return "cu"
	case FieldURL:
		return "cw"
	default:
		return "cp"
	}
}

func (ListDir) command()           {}
func (ChangeDir) command()         {}
func (Show) command()              {}
func (Copy) command()              {}
func (ClearClipboard) command()    {}
func (Open) command()              {}
func (Close) command()             {}
func (PrintWorkingGroup) command() {}
func (Help) command()              {}
func (History) command()           {}
func (Exit) command()              {}
