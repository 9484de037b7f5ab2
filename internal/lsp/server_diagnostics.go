package lsp

import (
	"errors"
	"time"

	"quill/internal/check"
	"quill/internal/diag"
)

// scheduleCheck (re)starts the debounce timer of one document.
func (s *Server) scheduleCheck(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.timers[key]; t != nil {
		t.Stop()
	}
	s.timers[key] = time.AfterFunc(s.debounce, func() {
		s.runCheck(key)
	})
}

// runCheck runs one pass over the current revision of a document. A newer
// edit or a settings change does not cancel it; its results are discarded at
// publish time instead.
func (s *Server) runCheck(key string) {
	s.mu.Lock()
	doc, ok := s.docs[key]
	if !ok {
		s.mu.Unlock()
		return
	}
	snap := *doc
	ctx := s.baseCtx
	checkFn := s.check
	language := s.language
	gen := s.settingsGen
	trace := s.traceLSP
	s.mu.Unlock()

	if trace {
		s.logf("check start: uri=%s version=%d", snap.uri, snap.version)
	}
	res, err := checkFn(ctx, check.Document{
		URI:      snap.uri,
		Revision: snap.version,
		Text:     snap.text,
		Language: language,
	})
	if err != nil {
		switch {
		case ctx.Err() != nil:
			if trace {
				s.logf("check canceled: uri=%s version=%d", snap.uri, snap.version)
			}
		case errors.Is(err, diag.ErrProtocol):
			s.logf("check aborted: uri=%s version=%d: %v", snap.uri, snap.version, err)
			s.showMessage(messageTypeWarning, "quill: checker response rejected for "+snap.uri+": "+err.Error())
		default:
			s.logf("check failed: uri=%s version=%d: %v", snap.uri, snap.version, err)
		}
		return
	}
	for _, w := range res.Warnings {
		s.logf("%s: %s", snap.uri, w)
	}
	if trace {
		s.logf("check done: uri=%s version=%d chunks=%d diags=%d skipped=%d",
			snap.uri, snap.version, res.Chunks, len(res.Entries), len(res.Warnings))
	}
	s.publishDiagnostics(key, snap.uri, snap.version, gen, res.Entries)
}

// publishDiagnostics commits entries for rev and, only if the store accepted
// them, sends them to the client. Entries computed under settings generation
// gen are dropped once the settings changed. Commit and send share pubMu.
func (s *Server) publishDiagnostics(key, uri string, rev int32, gen uint64, entries []diag.Entry) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()
	current := s.settingsGen
	s.mu.Unlock()
	if gen != current {
		if s.currentTrace() {
			s.logf("discard check: uri=%s version=%d: settings changed", uri, rev)
		}
		return
	}
	if !s.store.Commit(key, rev, entries) {
		if s.currentTrace() {
			latest, _ := s.store.Latest(key)
			s.logf("discard check: uri=%s version=%d latest=%d", uri, rev, latest)
		}
		return
	}
	list := make([]lspDiagnostic, 0, len(entries))
	for i := range entries {
		list = append(list, toLSPDiagnostic(&entries[i].Diagnostic))
	}
	s.mu.Lock()
	s.published[key] = uri
	s.mu.Unlock()
	if err := s.sendPublish(uri, &rev, list); err != nil {
		s.logf("failed to publish diagnostics: %v", err)
	}
}

// recheckAll schedules every open document, used after settings changed.
func (s *Server) recheckAll() {
	s.mu.Lock()
	keys := make([]string, 0, len(s.docs))
	for key := range s.docs {
		keys = append(keys, key)
	}
	s.mu.Unlock()
	for _, key := range keys {
		s.scheduleCheck(key)
	}
}

func (s *Server) stopTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, t := range s.timers {
		t.Stop()
		delete(s.timers, key)
	}
}

func (s *Server) clearPublishedDiagnostics() {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.mu.Lock()
	prev := s.published
	s.published = make(map[string]string)
	s.mu.Unlock()
	for key, uri := range prev {
		s.store.Drop(key)
		if err := s.sendPublish(uri, nil, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
}
