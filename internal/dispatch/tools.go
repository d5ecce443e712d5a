package dispatch

import "fsgate/internal/operations"

// Param is a string argument a tool accepts. All tool parameters are
// required.
type Param struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// Tool describes one entry of the tool table.
type Tool struct {
	// Name is the protocol name, e.g. "read_file".
	Name string `json:"name" yaml:"name"`
	// Operation is the short alias, e.g. "read".
	Operation   string  `json:"operation" yaml:"operation"`
	Title       string  `json:"title" yaml:"title"`
	Description string  `json:"description" yaml:"description"`
	Params      []Param `json:"params" yaml:"params"`

	ReadOnly    bool `json:"readOnly" yaml:"readOnly"`
	Destructive bool `json:"destructive" yaml:"destructive"`
	Idempotent  bool `json:"idempotent" yaml:"idempotent"`
}

// ParamNames returns the names of the tool's parameters in table order.
func (t Tool) ParamNames() []string {
	names := make([]string, len(t.Params))
	for i, p := range t.Params {
		names[i] = p.Name
	}
	return names
}

var (
	pathParam = func(desc string) Param { return Param{Name: "path", Description: desc} }

	toolTable = []Tool{
		{
			Name:        "read_file",
			Operation:   operations.OpRead,
			Title:       "Read file",
			Description: "Read the contents of a file",
			Params:      []Param{pathParam("Path to the file to read")},
			ReadOnly:    true,
			Idempotent:  true,
		},
		{
			Name:        "write_file",
			Operation:   operations.OpWrite,
			Title:       "Write file",
			Description: "Write content to a file",
			Params: []Param{
				pathParam("Path to the file to write"),
				{Name: "content", Description: "Content to write to the file"},
			},
			Destructive: true,
			Idempotent:  true,
		},
		{
			Name:        "list_directory",
			Operation:   operations.OpList,
			Title:       "List directory",
			Description: "List contents of a directory",
			Params:      []Param{pathParam("Path to the directory to list")},
			ReadOnly:    true,
			Idempotent:  true,
		},
		{
			Name:        "create_directory",
			Operation:   operations.OpMkdir,
			Title:       "Create directory",
			Description: "Create a directory",
			Params:      []Param{pathParam("Path to the directory to create")},
			Idempotent:  true,
		},
		{
			Name:        "delete_file",
			Operation:   operations.OpDelete,
			Title:       "Delete file",
			Description: "Delete a file",
			Params:      []Param{pathParam("Path to the file to delete")},
			Destructive: true,
			Idempotent:  true,
		},
		{
			Name:        "file_info",
			Operation:   operations.OpStat,
			Title:       "File info",
			Description: "Get information about a file or directory",
			Params:      []Param{pathParam("Path to the file or directory")},
			ReadOnly:    true,
			Idempotent:  true,
		},
	}
)
