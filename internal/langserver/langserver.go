// Package langserver implements the stdio diagnostics-only language
// server described in SPEC_FULL.md §3.6, grounded directly on the
// teacher's server/lsp.go: the same Initialize/Initialized/Shutdown
// lifecycle and didOpen/didChange/didClose document synchronization,
// scaled down to what an expression-only compiler can usefully report.
// There is nothing here for completion, hover, definition, or
// references: the language has no declarations to define or complete.
package langserver

import (
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/lumen/internal/bytecode"
	"github.com/chazu/lumen/internal/compiler"
	"github.com/chazu/lumen/internal/intern"

	_ "github.com/tliron/commonlog/simple"
)

const name = "lumen-lsp"

// Server bridges LSP document events to the compiler's diagnostics.
type Server struct {
	mu   sync.Mutex
	docs map[string]string // URI → full document content

	strings *intern.Table
	logger  commonlog.Logger

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// New creates a diagnostics-only LSP server. Each open document gets its
// own compile pass against a shared intern table, since the language
// has no cross-document state to share.
func New() *Server {
	s := &Server{
		docs:    make(map[string]string),
		strings: intern.New(),
		logger:  commonlog.GetLogger("lumen.langserver"),
		version: "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,
	}

	s.server = glspserver.NewServer(&s.handler, name, false)
	return s
}

// Run starts the server on stdio. Blocks until the client disconnects.
func (s *Server) Run() error {
	return s.server.RunStdio()
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.logger.Info("lumen-lsp initializing")

	capabilities := s.handler.CreateServerCapabilities()
	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    name,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	return nil
}

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.mu.Lock()
			s.docs[string(uri)] = whole.Text
			s.mu.Unlock()
			s.publishDiagnostics(ctx, uri, whole.Text)
		}
	}
	return nil
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// publishDiagnostics compiles text and, on a compile error, publishes a
// single diagnostic carrying the compiler's own message. The compiler's
// Error only tracks a line (not a column range), and the diagnostic's
// range is always line 0, character 0..0; the reported source line
// appears only inside the message text. Real column info would require
// the scanner to report spans, which spec.md does not ask for.
func (s *Server) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	diagnostics := Diagnose(text, s.strings)
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// Diagnose compiles text against strings and returns the (zero or one)
// diagnostics a client should display, factored out of publishDiagnostics
// so the compile-error-to-diagnostic mapping is testable without a live
// glsp.Context.
func Diagnose(text string, strings *intern.Table) []protocol.Diagnostic {
	chunk := bytecode.NewChunk()
	err := compiler.Compile(text, chunk, strings)
	if err == nil {
		return nil
	}
	severity := protocol.DiagnosticSeverityError
	source := name
	return []protocol.Diagnostic{{
		Range: protocol.Range{
			Start: protocol.Position{Line: 0, Character: 0},
			End:   protocol.Position{Line: 0, Character: 0},
		},
		Severity: &severity,
		Source:   &source,
		Message:  err.Error(),
	}}
}

func boolPtr(b bool) *bool { return &b }
