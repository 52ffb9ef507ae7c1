package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	connectors "github.com/felixgeelhaar/aira/internal/connectors/domain"
	"github.com/felixgeelhaar/aira/internal/devapi/store"
	rules "github.com/felixgeelhaar/aira/internal/rules/domain"
	"github.com/felixgeelhaar/aira/pkg/observability"
	"github.com/google/uuid"
)

// Response messages.
const (
	msgRuleCreated = "Rule created successfully"
	msgRuleUpdated = "Rule updated successfully"
	msgRuleDeleted = "Rule deleted successfully"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Handler implements the rules backend routes over a store.
type Handler struct {
	store   store.Store
	catalog *connectors.Catalog
	logger  *slog.Logger
	now     func() time.Time
}

// NewHandler creates a handler over st.
func NewHandler(st store.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:   st,
		catalog: connectors.DefaultCatalog(),
		logger:  logger,
		now:     time.Now,
	}
}

// ListRules handles GET /rules.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	stored, err := h.store.ListRules(r.Context())
	if err != nil {
		h.internalError(w, r, "list rules", err)
		return
	}
	writeJSON(w, http.StatusOK, store.Rules(stored))
}

// ListChatRules handles GET /rules/chat/{w_id}.
func (h *Handler) ListChatRules(w http.ResponseWriter, r *http.Request) {
	wID := r.PathValue("w_id")
	stored, err := h.store.ListChatRules(r.Context(), wID)
	if err != nil {
		h.internalError(w, r, "list chat rules", err)
		return
	}
	writeJSON(w, http.StatusOK, store.Rules(stored))
}

// CreateRule handles POST /rules.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req rules.CreateRuleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := h.now().UTC()
	rule := store.StoredRule{
		Rule:         ruleFromPayload(uuid.NewString(), req.RulePayload, rules.StatusActive),
		SuggestionID: req.SuggestionID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.store.CreateRule(r.Context(), rule); err != nil {
		if errors.Is(err, store.ErrDuplicateRule) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.internalError(w, r, "create rule", err)
		return
	}

	h.logger.InfoContext(r.Context(), "rule created", "rule_id", rule.RuleID, "targets", len(rule.WIDs))
	writeJSON(w, http.StatusOK, rules.MutationResponse{Success: msgRuleCreated, RuleID: rule.RuleID})
}

// UpdateRule handles PUT /rules.
func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	var req rules.UpdateRuleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := h.store.GetRule(r.Context(), req.RuleID)
	if errors.Is(err, rules.ErrRuleNotFound) {
		writeError(w, http.StatusNotFound, "Rule not found")
		return
	}
	if err != nil {
		h.internalError(w, r, "get rule", err)
		return
	}

	updated := existing
	updated.Rule = ruleFromPayload(req.RuleID, req.RulePayload, existing.Status)
	updated.IsDefault = existing.IsDefault
	updated.UpdatedAt = h.now().UTC()
	if err := h.store.UpdateRule(r.Context(), updated); err != nil {
		if errors.Is(err, rules.ErrRuleNotFound) {
			writeError(w, http.StatusNotFound, "Rule not found")
			return
		}
		h.internalError(w, r, "update rule", err)
		return
	}

	h.logger.InfoContext(r.Context(), "rule updated", "rule_id", req.RuleID, "status", updated.Status)
	writeJSON(w, http.StatusOK, rules.MutationResponse{Success: msgRuleUpdated, RuleID: req.RuleID})
}

// DeleteRule handles DELETE /rules. The rule id travels in the body.
func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	var req rules.DeleteRuleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.store.DeleteRule(r.Context(), req.RuleID)
	if errors.Is(err, rules.ErrRuleNotFound) {
		writeError(w, http.StatusNotFound, "Rule not found")
		return
	}
	if err != nil {
		h.internalError(w, r, "delete rule", err)
		return
	}

	h.logger.InfoContext(r.Context(), "rule deleted", "rule_id", req.RuleID)
	writeJSON(w, http.StatusOK, map[string]string{"success": msgRuleDeleted, "rule_id": req.RuleID})
}

// RunOnce handles POST /rules/run-once. Nothing is stored and no messages
// are read: the result lists what the rule would touch.
func (h *Handler) RunOnce(w http.ResponseWriter, r *http.Request) {
	var req rules.CreateRuleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusOK, rules.RunOnceResult{Success: false, Error: err.Error()})
		return
	}

	chats, err := h.store.ListChats(r.Context())
	if err != nil {
		h.internalError(w, r, "list chats", err)
		return
	}
	writeJSON(w, http.StatusOK, h.dryRun(req.RulePayload, chats))
}

func (h *Handler) dryRun(p rules.RulePayload, chats []store.Chat) rules.RunOnceResult {
	names := make(map[string]string, len(chats))
	for _, c := range chats {
		names[c.WID] = c.ChatName
	}

	scanned := 0
	res := rules.RunOnceResult{
		Success:         true,
		MessagesScanned: &scanned,
		GroupsProcessed: []rules.ProcessedGroup{},
		Actions:         []rules.RunOnceAction{},
	}
	for _, wID := range p.WIDs {
		name, ok := names[wID]
		if !ok {
			continue
		}
		res.GroupsProcessed = append(res.GroupsProcessed, rules.ProcessedGroup{WID: wID, ChatName: name})
	}

	suggestion := h.catalog.Suggest(p.RawText)
	for _, id := range suggestion.ConnectorIDs {
		def, err := h.catalog.Resolve(string(id))
		if err != nil {
			continue
		}
		res.Actions = append(res.Actions, rules.RunOnceAction{
			Type:        "connector",
			Description: "Would use " + def.Name,
			Target:      string(def.ID),
		})
	}

	if sched := p.Schedule(); sched.IsScheduled() {
		if next, err := sched.NextRun(h.now()); err == nil {
			res.Actions = append(res.Actions, rules.RunOnceAction{
				Type:        "schedule",
				Description: "Would run " + sched.String(),
				Preview:     "Next run " + next.UTC().Format(time.RFC3339),
			})
		}
	}

	switch {
	case len(p.WIDs) > 0 && len(res.GroupsProcessed) == 0:
		res.Summary = "Dry run complete. None of the selected chats are known."
	case len(res.GroupsProcessed) > 0:
		res.Summary = fmt.Sprintf("Dry run complete. %d chat(s) checked, no new messages.", len(res.GroupsProcessed))
	default:
		res.Summary = "Dry run complete. No chats selected."
	}
	return res
}

// ListGroups handles GET /waha/groups.
func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	chats, err := h.store.ListChats(r.Context())
	if err != nil {
		h.internalError(w, r, "list chats", err)
		return
	}
	stored, err := h.store.ListRules(r.Context())
	if err != nil {
		h.internalError(w, r, "list rules", err)
		return
	}
	writeJSON(w, http.StatusOK, store.Listing(chats, stored))
}

// ListConnectors handles GET /connectors. Every known connector is listed.
func (h *Handler) ListConnectors(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.store.ListConnectors(r.Context())
	if err != nil {
		h.internalError(w, r, "list connectors", err)
		return
	}
	connected := make(map[connectors.ID]bool, len(statuses))
	for _, s := range statuses {
		connected[s.ID] = s.IsConnected
	}
	out := make([]connectors.Status, 0, len(connectors.KnownIDs))
	for _, id := range connectors.KnownIDs {
		out = append(out, connectors.Status{ID: id, IsConnected: connected[id]})
	}
	writeJSON(w, http.StatusOK, out)
}

// Connect handles POST /connectors/connect. The redirect points at the
// local callback, which marks the connector connected.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	var req connectors.ConnectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	def, err := h.catalog.Resolve(string(req.ConnectorType))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if def.SetupHint != "" {
		writeError(w, http.StatusBadRequest, def.SetupHint)
		return
	}

	callback := url.URL{
		Scheme:   requestScheme(r),
		Host:     r.Host,
		Path:     "/connectors/callback",
		RawQuery: url.Values{"connector": {string(def.ID)}}.Encode(),
	}
	h.logger.InfoContext(r.Context(), "connector authorization started",
		"connector", def.ID, "platform", req.Platform)
	writeJSON(w, http.StatusOK, connectors.ConnectResponse{RedirectURL: callback.String()})
}

// ConnectCallback handles GET /connectors/callback.
func (h *Handler) ConnectCallback(w http.ResponseWriter, r *http.Request) {
	def, err := h.catalog.Resolve(r.URL.Query().Get("connector"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.store.SetConnector(r.Context(), def.ID, true); err != nil {
		h.internalError(w, r, "set connector", err)
		return
	}
	h.logger.InfoContext(r.Context(), "connector connected", "connector", def.ID)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "%s connected. You can close this window.\n", def.Name)
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.ErrorContext(r.Context(), op+" failed", observability.ErrorKey, err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// ruleFromPayload builds a stored rule. An empty status keeps fallback.
func ruleFromPayload(ruleID string, p rules.RulePayload, fallback rules.Status) rules.Rule {
	status := p.Status
	if status == "" {
		status = fallback
	}
	wids := p.WIDs
	if wids == nil {
		wids = []string{}
	}
	triggerTime, interval := p.TriggerTime, p.Interval
	if triggerTime != nil && strings.TrimSpace(*triggerTime) == "" {
		triggerTime = nil
	}
	return rules.Rule{
		RuleID:      ruleID,
		WIDs:        wids,
		RawText:     strings.TrimSpace(p.RawText),
		Status:      status,
		TriggerTime: triggerTime,
		Interval:    interval,
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func requestScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	return "http"
}
