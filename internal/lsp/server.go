package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"quill/internal/check"
	"quill/internal/checker"
	"quill/internal/diag"
	"quill/internal/store"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// DefaultDebounce is the quiet period after an edit before a document is
// checked.
const DefaultDebounce = 300 * time.Millisecond

// CheckFunc runs one check pass over a document revision.
type CheckFunc func(ctx context.Context, doc check.Document) (*check.Result, error)

// ConfigureFunc builds the check function for a workspace root. It is called
// once while handling "initialize"; root is empty for single-file sessions.
type ConfigureFunc func(root string) (CheckFunc, error)

// ServerOptions configures LSP server behavior.
type ServerOptions struct {
	Debounce  time.Duration
	Check     CheckFunc
	Configure ConfigureFunc
	Store     *store.Store
	Version   string
	Log       io.Writer
}

type docState struct {
	uri     string // as spelled by the client
	text    string
	version int32
}

// Server handles stdio JSON-RPC for the quill language server.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex
	pubMu  sync.Mutex
	logMu  sync.Mutex
	mu     sync.Mutex

	docs      map[string]*docState
	timers    map[string]*time.Timer
	published map[string]string

	store             *store.Store
	check             CheckFunc
	configure         ConfigureFunc
	debounce          time.Duration
	baseCtx           context.Context
	language          string
	settingsGen       uint64 // bumped when settings that affect results change
	traceLSP          bool
	shutdownRequested bool
	version           string
	log               io.Writer
}

// NewServer constructs a new LSP server. Without a Check function documents
// are checked against a LanguageTool server on checker.DefaultServerURL.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	checkFn := opts.Check
	if checkFn == nil {
		checkFn = check.New(checker.NewClient(checker.DefaultServerURL), check.Options{}).Run
	}
	st := opts.Store
	if st == nil {
		st = store.New()
	}
	logw := opts.Log
	if logw == nil {
		logw = os.Stderr
	}
	return &Server{
		in:        bufio.NewReader(in),
		out:       bufio.NewWriter(out),
		docs:      make(map[string]*docState),
		timers:    make(map[string]*time.Timer),
		published: make(map[string]string),
		store:     st,
		check:     checkFn,
		configure: opts.Configure,
		debounce:  debounce,
		baseCtx:   context.Background(),
		version:   opts.Version,
		log:       logw,
	}
}

// Store returns the diagnostics store the server commits to.
func (s *Server) Store() *store.Store {
	return s.store
}

// Run serves LSP requests until exit or end of input.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()
	for {
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.stopTimers()
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logf("failed to parse message: %v", err)
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			s.stopTimers()
			return err
		}
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		if s.isShutdown() {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	}
	if s.isShutdown() {
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeInvalidRequest, "server is shutting down")
		}
		return nil
	}
	switch msg.Method {
	case "workspace/didChangeConfiguration":
		return s.handleDidChangeConfiguration(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/codeAction":
		return s.handleCodeAction(msg)
	case "codeAction/resolve":
		return s.handleCodeActionResolve(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeMethodNotFound, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	root := workspaceRoot(&params)
	if s.configure != nil {
		checkFn, err := s.configure(root)
		switch {
		case err != nil:
			s.logf("configuration for %q failed, using defaults: %v", root, err)
		case checkFn != nil:
			s.mu.Lock()
			s.check = checkFn
			s.mu.Unlock()
		}
	}
	s.applySettings(params.InitializationOptions)

	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    2,
				Save: saveOptions{
					IncludeText: true,
				},
			},
			CodeActionProvider: &codeActionOptions{
				CodeActionKinds: []string{diag.ActionKindQuickFix},
				ResolveProvider: true,
			},
		},
		ServerInfo: &serverInfo{Name: "quill", Version: s.version},
	}
	return s.sendResponse(msg.ID, result)
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	s.shutdownRequested = true
	s.mu.Unlock()
	s.stopTimers()
	s.clearPublishedDiagnostics()
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	key := canonicalURI(params.TextDocument.URI)
	if key == "" {
		return nil
	}
	s.mu.Lock()
	s.docs[key] = &docState{
		uri:     params.TextDocument.URI,
		text:    params.TextDocument.Text,
		version: params.TextDocument.Version,
	}
	s.mu.Unlock()
	// a reopened document starts a fresh revision sequence
	s.store.Drop(key)
	s.store.Begin(key, params.TextDocument.Version)
	s.scheduleCheck(key)
	return nil
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	key := canonicalURI(params.TextDocument.URI)
	if key == "" {
		return nil
	}
	s.mu.Lock()
	doc := s.docs[key]
	if doc == nil {
		doc = &docState{uri: params.TextDocument.URI}
		s.docs[key] = doc
	}
	oldVersion := doc.version
	doc.text = applyChanges(doc.text, params.ContentChanges)
	doc.version = params.TextDocument.Version
	trace := s.traceLSP
	s.mu.Unlock()
	if trace {
		s.logf("didChange: uri=%s version=%d->%d", doc.uri, oldVersion, params.TextDocument.Version)
	}
	s.store.Begin(key, params.TextDocument.Version)
	s.scheduleCheck(key)
	return nil
}

func (s *Server) handleDidSave(msg *rpcMessage) error {
	var params didSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	key := canonicalURI(params.TextDocument.URI)
	if key == "" {
		return nil
	}
	s.mu.Lock()
	doc := s.docs[key]
	if doc == nil {
		s.mu.Unlock()
		return nil
	}
	if params.Text != nil {
		doc.text = *params.Text
	}
	trace := s.traceLSP
	version := doc.version
	s.mu.Unlock()
	if trace {
		s.logf("didSave: uri=%s version=%d", doc.uri, version)
	}
	s.scheduleCheck(key)
	return nil
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	key := canonicalURI(params.TextDocument.URI)
	if key == "" {
		return nil
	}
	s.mu.Lock()
	delete(s.docs, key)
	if t := s.timers[key]; t != nil {
		t.Stop()
		delete(s.timers, key)
	}
	uri, hadDiagnostics := s.published[key]
	delete(s.published, key)
	s.mu.Unlock()

	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.store.Drop(key)
	if hadDiagnostics {
		if err := s.sendPublish(uri, nil, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
	return nil
}

func (s *Server) handleCodeAction(msg *rpcMessage) error {
	var params codeActionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	actions := []codeAction{}
	if !wantsQuickFix(params.Context.Only) {
		return s.sendResponse(msg.ID, actions)
	}
	key := canonicalURI(params.TextDocument.URI)
	text, ok := s.documentText(key)
	if !ok {
		return s.sendResponse(msg.ID, actions)
	}
	for _, a := range s.store.ActionsOverlapping(key, rangeIn(text, params.Range)) {
		actions = append(actions, toCodeAction(&a))
	}
	return s.sendResponse(msg.ID, actions)
}

// handleCodeActionResolve answers with the action unchanged; every action is
// sent fully populated.
func (s *Server) handleCodeActionResolve(msg *rpcMessage) error {
	var action codeAction
	if err := json.Unmarshal(msg.Params, &action); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	return s.sendResponse(msg.ID, action)
}

func wantsQuickFix(only []string) bool {
	if len(only) == 0 {
		return true
	}
	for _, kind := range only {
		if kind == diag.ActionKindQuickFix {
			return true
		}
	}
	return false
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": rpcError{
			Code:    code,
			Message: message,
		},
	}
	return s.send(msg)
}

func (s *Server) sendPublish(uri string, version *int32, list []lspDiagnostic) error {
	if list == nil {
		list = []lspDiagnostic{}
	}
	return s.sendNotification("textDocument/publishDiagnostics", publishDiagnosticsParams{
		URI:         uri,
		Version:     version,
		Diagnostics: list,
	})
}

func (s *Server) showMessage(typ int, message string) {
	if err := s.sendNotification("window/showMessage", showMessageParams{Type: typ, Message: message}); err != nil {
		s.logf("failed to show message: %v", err)
	}
}

func (s *Server) sendNotification(method string, params any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	}
	return s.send(msg)
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}

func (s *Server) logf(format string, args ...any) {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	fmt.Fprintf(s.log, "lsp: "+format+"\n", args...)
}
