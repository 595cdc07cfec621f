// Package handler provides the Lambda handler for the Ko-Connect tools.
package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/koconnect/koconnect/internal/apperr"
	"github.com/koconnect/koconnect/internal/chunker"
	"github.com/koconnect/koconnect/internal/diff"
	"github.com/koconnect/koconnect/internal/domain"
	"github.com/koconnect/koconnect/internal/history"
	"github.com/koconnect/koconnect/internal/logger"
	"github.com/koconnect/koconnect/internal/ocr"
	"github.com/koconnect/koconnect/internal/pipeline"
	"github.com/koconnect/koconnect/internal/router"
	"github.com/koconnect/koconnect/internal/session"
	"github.com/koconnect/koconnect/internal/style"
)

// Request is the input event.
type Request struct {
	Action         string  `json:"action"`
	SessionID      string  `json:"sessionId,omitempty"`
	Text           string  `json:"text,omitempty"`
	Image          string  `json:"image,omitempty"` // base64
	ImageName      string  `json:"imageName,omitempty"`
	SourceLanguage string  `json:"sourceLanguage,omitempty"`
	TargetLanguage string  `json:"targetLanguage,omitempty"`
	Style          string  `json:"style,omitempty"`
	Filter         *Filter `json:"filter,omitempty"`
	RecordID       string  `json:"recordId,omitempty"`
	Original       string  `json:"original,omitempty"`
	Transformed    string  `json:"transformed,omitempty"`
	Aligned        bool    `json:"aligned,omitempty"`
}

// Filter selects history records by display or canonical names.
type Filter struct {
	TargetLanguages []string `json:"targetLanguages,omitempty"`
	Styles          []string `json:"styles,omitempty"`
}

// Language describes one supported language.
type Language struct {
	Name  domain.Language `json:"name"`
	Label string          `json:"label"`
}

// ErrorBody is the error part of a Response.
type ErrorBody struct {
	Kind    apperr.Kind `json:"kind"`
	Code    apperr.Code `json:"code,omitempty"`
	Message string      `json:"message"`
	Details string      `json:"details,omitempty"`
}

// Response is the output of every action. Only the fields relevant to the
// action are set.
type Response struct {
	Action         string                 `json:"action,omitempty"`
	SessionID      string                 `json:"sessionId,omitempty"`
	Result         *pipeline.Result       `json:"result,omitempty"`
	Text           string                 `json:"text,omitempty"`
	NoTextFound    bool                   `json:"noTextFound,omitempty"`
	SourceLanguage domain.Language        `json:"sourceLanguage,omitempty"`
	TargetLanguage domain.Language        `json:"targetLanguage,omitempty"`
	Detected       bool                   `json:"detected,omitempty"`
	AppliedStyle   domain.Style           `json:"appliedStyle,omitempty"`
	Records        []domain.HistoryRecord `json:"records,omitempty"`
	Removed        *bool                  `json:"removed,omitempty"`
	Changes        []domain.ChangeEntry   `json:"changes,omitempty"`
	ChangedWords   []string               `json:"changedWords,omitempty"`
	WordList       []domain.WordAction    `json:"wordList,omitempty"`
	Languages      []Language             `json:"languages,omitempty"`
	Styles         []style.Definition     `json:"styles,omitempty"`
	Error          *ErrorBody             `json:"error,omitempty"`
}

// Handler dispatches requests to the core components.
type Handler struct {
	router    *router.Router
	styler    *style.Router
	extractor *ocr.Extractor
	pipeline  *pipeline.Pipeline
	sessions  *session.Registry
	maxTokens int
	log       logger.Logger
}

// Deps are the components a Handler dispatches to.
type Deps struct {
	Router    *router.Router
	Styler    *style.Router
	Extractor *ocr.Extractor
	Sessions  *session.Registry
	MaxTokens int
	Logger    logger.Logger
}

// New creates a handler.
func New(d Deps) *Handler {
	log := logger.OrNop(d.Logger)
	sessions := d.Sessions
	if sessions == nil {
		sessions = session.NewRegistry(nil, log)
	}
	var ex pipeline.Extractor
	if d.Extractor != nil {
		ex = d.Extractor
	}
	return &Handler{
		router:    d.Router,
		styler:    d.Styler,
		extractor: d.Extractor,
		pipeline:  pipeline.New(d.Router, d.Styler, ex, d.MaxTokens, log),
		sessions:  sessions,
		maxTokens: d.MaxTokens,
		log:       log.With(map[string]interface{}{"component": "handler"}),
	}
}

// Handle validates and dispatches one raw event. Application errors are
// reported in Response.Error; only an event that is not a JSON object fails
// the invocation.
func (h *Handler) Handle(ctx context.Context, event json.RawMessage) (*Response, error) {
	var probe map[string]interface{}
	if err := json.Unmarshal(event, &probe); err != nil {
		return nil, fmt.Errorf("parse event: %w", err)
	}

	if err := validateRequest(event); err != nil {
		return h.fail(&Response{}, err), nil
	}

	var req Request
	if err := json.Unmarshal(event, &req); err != nil {
		return nil, fmt.Errorf("parse request: %w", err)
	}

	resp := &Response{Action: req.Action}
	var err error
	switch req.Action {
	case ActionProcess:
		err = h.process(ctx, req, resp)
	case ActionTranslate:
		err = h.translate(ctx, req, resp)
	case ActionStyle:
		err = h.restyle(ctx, req, resp)
	case ActionExtract:
		if h.extractor == nil {
			err = apperr.NewInvalidInputError("image input is not available")
			break
		}
		err = h.extract(ctx, req, resp)
	case ActionDiff:
		h.compare(req, resp)
	case ActionHistoryList:
		err = h.historyList(ctx, req, resp)
	case ActionHistoryRemove:
		err = h.historyRemove(ctx, req, resp)
	case ActionHistoryClear:
		h.historyClear(ctx, req, resp)
	case ActionLanguages:
		for _, l := range h.router.SupportedLanguages() {
			resp.Languages = append(resp.Languages, Language{Name: l, Label: router.Label(l)})
		}
	case ActionStyles:
		resp.Styles = append([]style.Definition(nil), style.Definitions...)
	}
	if err != nil {
		return h.fail(resp, err), nil
	}
	return resp, nil
}

func (h *Handler) fail(resp *Response, err error) *Response {
	appErr, ok := apperr.As(err)
	if !ok {
		h.log.WithError(err).Error("unclassified failure", map[string]interface{}{"action": resp.Action})
		resp.Error = &ErrorBody{Kind: apperr.KindUpstream, Message: err.Error()}
		return resp
	}

	fields := map[string]interface{}{"action": resp.Action, "kind": appErr.Kind, "code": appErr.Code}
	if appErr.Kind == apperr.KindUpstream || appErr.Kind == apperr.KindConfiguration {
		h.log.WithError(err).Error("request failed", fields)
	} else {
		h.log.Info("request rejected", fields)
	}
	resp.Error = &ErrorBody{
		Kind:    appErr.Kind,
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}
	return resp
}

// sessionID returns the request's session, minting one when absent.
func sessionID(req Request) string {
	if id := strings.TrimSpace(req.SessionID); id != "" {
		return id
	}
	return uuid.NewString()
}

// synced logs a failed snapshot write. The in-memory result still stands.
func (h *Handler) synced(id string, err error) {
	if err != nil {
		h.log.Warn("session snapshot save failed", map[string]interface{}{"session": id, "error": err.Error()})
	}
}

func decodeImage(req Request) (ocr.Image, error) {
	data, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		return ocr.Image{}, apperr.NewImageDecodeError(fmt.Errorf("image is not valid base64: %w", err))
	}
	return ocr.Image{Name: req.ImageName, Data: data}, nil
}

func (h *Handler) process(ctx context.Context, req Request, resp *Response) error {
	in := pipeline.Input{
		Text:   req.Text,
		Source: req.SourceLanguage,
		Target: req.TargetLanguage,
		Style:  req.Style,
	}
	if req.Image != "" {
		img, err := decodeImage(req)
		if err != nil {
			return err
		}
		in.Image = img
	}

	resp.SessionID = sessionID(req)
	res, err := h.pipeline.Process(ctx, h.sessions.Store(ctx, resp.SessionID), in)
	if err != nil {
		return err
	}
	resp.Result = res
	if res.Record != nil {
		h.synced(resp.SessionID, h.sessions.Appended(ctx, resp.SessionID, *res.Record))
	}
	return nil
}

func (h *Handler) translate(ctx context.Context, req Request, resp *Response) error {
	if err := chunker.Guard(req.Text, h.maxTokens); err != nil {
		return err
	}
	res, err := h.router.Translate(ctx, req.Text, req.SourceLanguage, req.TargetLanguage)
	if err != nil {
		return err
	}
	resp.Text = res.Text
	resp.SourceLanguage, resp.TargetLanguage, resp.Detected = res.Source, res.Target, res.Detected
	return nil
}

func (h *Handler) restyle(ctx context.Context, req Request, resp *Response) error {
	if err := chunker.Guard(req.Text, h.maxTokens); err != nil {
		return err
	}
	out, s, err := h.styler.Transform(ctx, req.Text, req.Style)
	if err != nil {
		return err
	}
	resp.Text, resp.AppliedStyle = out, s
	return nil
}

func (h *Handler) extract(ctx context.Context, req Request, resp *Response) error {
	img, err := decodeImage(req)
	if err != nil {
		return err
	}
	text, err := h.extractor.Extract(ctx, img)
	if err != nil {
		return err
	}
	resp.Text = text
	resp.NoTextFound = strings.TrimSpace(text) == ""
	return nil
}

func (h *Handler) compare(req Request, resp *Response) {
	if req.Aligned {
		resp.Changes = diff.Aligned(req.Original, req.Transformed)
	} else {
		resp.Changes = diff.Compare(req.Original, req.Transformed)
	}
	resp.ChangedWords = diff.Unique(resp.Changes)
	resp.WordList = diff.WordList(resp.Changes)
}

func (h *Handler) historyFilter(f *Filter) (history.Filter, error) {
	var out history.Filter
	if f == nil {
		return out, nil
	}
	for _, name := range f.TargetLanguages {
		l, err := h.router.ResolveLanguage(name)
		if err != nil {
			return out, err
		}
		out.TargetLanguages = append(out.TargetLanguages, l)
	}
	for _, name := range f.Styles {
		s, err := style.Parse(name)
		if err != nil {
			return out, err
		}
		out.Styles = append(out.Styles, s)
	}
	return out, nil
}

func (h *Handler) historyList(ctx context.Context, req Request, resp *Response) error {
	f, err := h.historyFilter(req.Filter)
	if err != nil {
		return err
	}
	resp.SessionID = sessionID(req)
	resp.Records = h.sessions.Store(ctx, resp.SessionID).List(f)
	return nil
}

func (h *Handler) historyRemove(ctx context.Context, req Request, resp *Response) error {
	resp.SessionID = sessionID(req)
	store := h.sessions.Store(ctx, resp.SessionID)

	removed := false
	if rec, ok := store.Find(req.RecordID); ok {
		removed = store.Remove(rec)
	}
	resp.Removed = &removed
	if removed {
		h.synced(resp.SessionID, h.sessions.Removed(ctx, resp.SessionID, req.RecordID))
	}
	return nil
}

func (h *Handler) historyClear(ctx context.Context, req Request, resp *Response) {
	resp.SessionID = sessionID(req)
	h.sessions.Store(ctx, resp.SessionID).Clear()
	h.synced(resp.SessionID, h.sessions.Cleared(ctx, resp.SessionID))
}
