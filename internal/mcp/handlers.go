package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/hpungsan/locky/internal/describe"
	"github.com/hpungsan/locky/internal/errors"
	"github.com/hpungsan/locky/internal/logging"
	"github.com/hpungsan/locky/internal/storage"
	"github.com/hpungsan/locky/internal/vault"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	vault     *vault.Manager
	describer describe.Describer
	logger    *zap.Logger
}

// NewHandlers creates a new Handlers instance. A nil describer means
// the baseline one.
func NewHandlers(m *vault.Manager, d describe.Describer, logger *zap.Logger) *Handlers {
	if d == nil {
		d = describe.Baseline{}
	}
	return &Handlers{vault: m, describer: d, logger: logging.OrNop(logger).Named("mcp")}
}

// Request types for each tool

// AddRequest represents the arguments for vault_add.
type AddRequest struct {
	Path       string `json:"path"`
	Overwrite  bool   `json:"overwrite,omitempty"`
	Redescribe bool   `json:"redescribe,omitempty"`
}

// PasteRequest represents the arguments for vault_paste.
type PasteRequest struct {
	Filenames []string `json:"filenames"`
	DestDir   string   `json:"dest_dir,omitempty"`
	Overwrite bool     `json:"overwrite,omitempty"`
}

// RemoveRequest represents the arguments for vault_remove.
type RemoveRequest struct {
	Filenames []string `json:"filenames"`
}

// DescribeRequest represents the arguments for vault_describe.
type DescribeRequest struct {
	Filename   string `json:"filename"`
	Regenerate bool   `json:"regenerate,omitempty"`
}

// SetDescriptionRequest represents the arguments for vault_set_description.
type SetDescriptionRequest struct {
	Filename    string `json:"filename"`
	Description string `json:"description"`
}

// AddResponse is the vault_add result.
type AddResponse struct {
	*vault.AddOutput
	Description          string `json:"description,omitempty"`
	DescriptionGenerated bool   `json:"description_generated,omitempty"`
}

// DescribeResponse is the vault_describe result.
type DescribeResponse struct {
	Filename string `json:"filename"`
	*describe.AttachResult
}

// Handler implementations

// HandleList handles the vault_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := h.vault.List(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleAdd handles the vault_add tool call.
func (h *Handlers) HandleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	m := h.vault.WithPrompter(vault.AlwaysPrompter(input.Overwrite))
	out, err := m.Add(ctx, vault.AddInput{SourcePath: input.Path})
	if err != nil {
		return errorResult(err), nil
	}

	resp := AddResponse{AddOutput: out}
	if out.Added {
		attached, err := describe.Attach(ctx, m, h.describer, out.Filename, out.Path, input.Redescribe)
		if err != nil {
			// The copy and record are in place; only the description is missing
			h.logger.Warn("attach description failed", zap.String("file", out.Filename), zap.Error(err))
		} else {
			resp.Description = attached.Description
			resp.DescriptionGenerated = attached.Generated
		}
	}
	return successResult(resp)
}

// HandlePaste handles the vault_paste tool call.
func (h *Handlers) HandlePaste(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PasteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if len(input.Filenames) == 0 {
		return errorResult(errors.NewInvalidRequest("filenames is required")), nil
	}

	m := h.vault.WithPrompter(vault.AlwaysPrompter(input.Overwrite))
	result, err := m.Paste(ctx, vault.PasteInput{
		Filenames: input.Filenames,
		DestDir:   input.DestDir,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleRemove handles the vault_remove tool call.
func (h *Handlers) HandleRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RemoveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if len(input.Filenames) == 0 {
		return errorResult(errors.NewInvalidRequest("filenames is required")), nil
	}

	result, err := h.vault.Remove(ctx, vault.RemoveInput{Filenames: input.Filenames})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleDescribe handles the vault_describe tool call.
func (h *Handlers) HandleDescribe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DescribeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	path, err := h.storedPath(ctx, input.Filename)
	if err != nil {
		return errorResult(err), nil
	}

	attached, err := describe.Attach(ctx, h.vault, h.describer, input.Filename, path, input.Regenerate)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(DescribeResponse{Filename: input.Filename, AttachResult: attached})
}

// HandleSetDescription handles the vault_set_description tool call.
func (h *Handlers) HandleSetDescription(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SetDescriptionRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	desc := strings.TrimSpace(input.Description)
	if desc == "" {
		return errorResult(errors.NewInvalidRequest("description is required")), nil
	}

	if _, err := h.vault.Record(ctx, input.Filename); err != nil {
		return errorResult(err), nil
	}
	if err := h.vault.SetDescription(ctx, input.Filename, desc); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{
		"filename":    input.Filename,
		"description": desc,
	})
}

// storedPath returns the vault path of a recorded file whose copy exists.
func (h *Handlers) storedPath(ctx context.Context, filename string) (string, error) {
	if _, err := h.vault.Record(ctx, filename); err != nil {
		return "", err
	}
	path, err := h.vault.Path(filename)
	if err != nil {
		return "", err
	}
	if !storage.ExistsAsFile(path) {
		return "", errors.NewNotFound(filename)
	}
	return path, nil
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var vErr *errors.VaultError
	if stderrors.As(err, &vErr) {
		msg := vErr.Message
		if err != error(vErr) {
			// Keep wrapper context such as "items[2]: ..."
			msg = strings.TrimSuffix(err.Error(), vErr.Error()) + vErr.Message
		}
		errorObj := map[string]any{
			"code":    vErr.Code,
			"message": msg,
		}
		if vErr.Code != errors.ErrInternal && vErr.Details != nil {
			errorObj["details"] = vErr.Details
		}
		if vErr.Code == errors.ErrInternal {
			errorObj["message"] = "an internal error occurred"
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
