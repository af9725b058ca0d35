package mcp

import "github.com/mark3labs/mcp-go/mcp"

var listToolDef = mcp.NewTool("vault_list",
	mcp.WithDescription("List files stored in the vault with their descriptions, sizes and add times, sorted by filename."),
)

var addToolDef = mcp.NewTool("vault_add",
	mcp.WithDescription("Copy a local file into the vault under its basename and attach a description. "+
		"An existing vault file of the same name is replaced only when overwrite is true."),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Path of the file to add"),
	),
	mcp.WithBoolean("overwrite",
		mcp.Description("Replace a stored file of the same name (default false)"),
	),
	mcp.WithBoolean("redescribe",
		mcp.Description("Generate a new description even if one is stored (default false)"),
	),
)

var pasteToolDef = mcp.NewTool("vault_paste",
	mcp.WithDescription("Copy stored files out of the vault into a directory. Names not in the vault are skipped."),
	mcp.WithArray("filenames",
		mcp.Required(),
		mcp.Description("Vault filenames to paste, in order"),
		mcp.WithStringItems(),
	),
	mcp.WithString("dest_dir",
		mcp.Description("Destination directory (default: server working directory)"),
	),
	mcp.WithBoolean("overwrite",
		mcp.Description("Replace existing files at the destination (default false)"),
	),
)

var removeToolDef = mcp.NewTool("vault_remove",
	mcp.WithDescription("Delete files from the vault and drop their records."),
	mcp.WithArray("filenames",
		mcp.Required(),
		mcp.Description("Vault filenames to remove"),
		mcp.WithStringItems(),
	),
)

var describeToolDef = mcp.NewTool("vault_describe",
	mcp.WithDescription("Return the description of a stored file, generating one if it has none."),
	mcp.WithString("filename",
		mcp.Required(),
		mcp.Description("Vault filename"),
	),
	mcp.WithBoolean("regenerate",
		mcp.Description("Replace the stored description with a freshly generated one"),
	),
)

var setDescriptionToolDef = mcp.NewTool("vault_set_description",
	mcp.WithDescription("Store a description for a file already in the vault."),
	mcp.WithString("filename",
		mcp.Required(),
		mcp.Description("Vault filename"),
	),
	mcp.WithString("description",
		mcp.Required(),
		mcp.Description("Description text"),
	),
)
