// ABOUTME: HTTP handlers for customers, generators, experiments, agenda, and events
// ABOUTME: Query strings use the camelCase parameter names the dashboard sends
package web

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/harperreed/outbound/campaign"
	"github.com/harperreed/outbound/importer"
	"github.com/harperreed/outbound/models"
)

// queryPlatform parses an optional platform parameter.
func queryPlatform(c *gin.Context, name string) (models.Platform, error) {
	return optionalPlatform(c.Query(name))
}

func optionalPlatform(v string) (models.Platform, error) {
	if v == "" {
		return "", nil
	}
	return models.ParsePlatform(v)
}

// parseIDs accepts "1,2,3" and also "[1, 2, 3]".
func parseIDs(s string) ([]int64, error) {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	if s == "" {
		return nil, fmt.Errorf("no ids given")
	}
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Server) handleListCustomers(c *gin.Context) {
	platform, err := queryPlatform(c, "platform")
	if err != nil {
		badRequest(c, err)
		return
	}
	inactive, _ := strconv.ParseBool(c.DefaultQuery("inactiveOnly", "false"))

	customers, err := s.engine.ListCustomers(c.Request.Context(), campaign.CustomerFilter{
		Role:         c.Query("custRole"),
		Platform:     platform,
		Country:      c.Query("country"),
		InactiveOnly: inactive,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

// UploadRequest carries spreadsheet rows as JSON objects.
type UploadRequest struct {
	Platform   string              `json:"platform" validate:"required"`
	Title      string              `json:"title"`
	Country    string              `json:"country"`
	Product    string              `json:"product"`
	OwnerEmail string              `json:"ownerEmail" validate:"omitempty,email"`
	Columns    []string            `json:"columns"`
	Rows       []map[string]string `json:"rows" validate:"required,min=1"`
}

// table keeps the given column order, falling back to the sorted union of row keys.
func (r UploadRequest) table() *importer.Table {
	columns := r.Columns
	if len(columns) == 0 {
		seen := map[string]bool{}
		for _, row := range r.Rows {
			for k := range row {
				if !seen[k] {
					seen[k] = true
					columns = append(columns, k)
				}
			}
		}
		sort.Strings(columns)
	}
	t := &importer.Table{Columns: columns}
	for _, row := range r.Rows {
		t.Rows = append(t.Rows, importer.Row(row))
	}
	return t
}

func (s *Server) bindUpload(c *gin.Context) (*UploadRequest, models.Platform, bool) {
	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return nil, "", false
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(c, err)
		return nil, "", false
	}
	platform, err := models.ParsePlatform(req.Platform)
	if err != nil {
		badRequest(c, err)
		return nil, "", false
	}
	return &req, platform, true
}

func (s *Server) handleImportCustomers(c *gin.Context) {
	req, platform, ok := s.bindUpload(c)
	if !ok {
		return
	}
	res, err := s.importer.ImportCustomers(c.Request.Context(), req.table(), platform, req.Title, req.Country)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"imported":   res.Imported,
		"duplicates": res.Duplicates,
		"missingKey": res.MissingKey,
	})
}

func (s *Server) handleImportVariables(c *gin.Context) {
	req, platform, ok := s.bindUpload(c)
	if !ok {
		return
	}
	if req.OwnerEmail == "" {
		badRequest(c, errors.New("ownerEmail is required"))
		return
	}
	results, err := s.importer.ImportVariables(c.Request.Context(), req.table(), platform, req.Product, req.OwnerEmail)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (s *Server) handleListVariableGenerators(c *gin.Context) {
	owner := c.Query("ownerEmail")
	if owner == "" {
		badRequest(c, errors.New("ownerEmail is required"))
		return
	}
	platform, err := queryPlatform(c, "platform")
	if err != nil {
		badRequest(c, err)
		return
	}
	gens, err := s.engine.ListVariableGenerators(c.Request.Context(), owner, platform, c.Query("phase"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gens)
}

func (s *Server) handleListVariables(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("variableGeneratorID"), 10, 64)
	if err != nil {
		badRequest(c, errors.New("variableGeneratorID must be an integer"))
		return
	}
	vars, err := s.engine.ListVariables(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, vars)
}

func (s *Server) handleListExperimentGenerators(c *gin.Context) {
	platform, err := queryPlatform(c, "platform")
	if err != nil {
		badRequest(c, err)
		return
	}
	gens, err := s.engine.ListExperimentGenerators(c.Request.Context(), c.Query("ownerEmail"), platform)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gens)
}

func (s *Server) handleGetExperiments(c *gin.Context) {
	ids, err := parseIDs(c.Query("experimentGeneratorIDs"))
	if err != nil {
		badRequest(c, err)
		return
	}
	views, err := s.engine.GetExperiments(c.Request.Context(), c.Query("ownerEmail"), ids)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if views == nil {
		views = []campaign.ExperimentView{}
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) handleOutboundContacts(c *gin.Context) {
	ids, err := parseIDs(c.Query("experimentGeneratorIDs"))
	if err != nil {
		badRequest(c, err)
		return
	}
	contacts, err := s.engine.OutboundContacts(c.Request.Context(), ids)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if contacts == nil {
		contacts = []campaign.OutboundContact{}
	}
	c.JSON(http.StatusOK, contacts)
}

// SetupRequest is the body of POST /experiments.
type SetupRequest struct {
	VariableGeneratorIDs []int64 `json:"variableGeneratorIDs" validate:"required,min=1,max=5"`
	Trials               int     `json:"trials" validate:"required,gt=0"`
	Rounds               int     `json:"rounds" validate:"required,gt=0"`
	Platform             string  `json:"platform" validate:"required"`
	Country              string  `json:"country"`
	OwnerEmail           string  `json:"ownerEmail" validate:"omitempty,email"`
}

// SetupResponse reports committed rounds; Error is set when the setup stopped early.
type SetupResponse struct {
	*campaign.SetupResult
	RoundsRequested int    `json:"roundsRequested"`
	RoundsCommitted int    `json:"roundsCommitted"`
	Error           string `json:"error,omitempty"`
	Kind            string `json:"kind,omitempty"`
}

func (s *Server) handleSetupExperiments(c *gin.Context) {
	var req SetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	// Country has its own error kind, so check it before the struct rules.
	if strings.TrimSpace(req.Country) == "" {
		s.writeError(c, campaign.ErrMissingCountry)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(c, err)
		return
	}
	platform, err := models.ParsePlatform(req.Platform)
	if err != nil {
		badRequest(c, err)
		return
	}

	result, err := s.engine.FullExperimentalSetup(c.Request.Context(), campaign.SetupRequest{
		VariableGeneratorIDs: req.VariableGeneratorIDs,
		Trials:               req.Trials,
		Rounds:               req.Rounds,
		Platform:             platform,
		Country:              req.Country,
		OwnerEmail:           req.OwnerEmail,
	})

	var partial *campaign.PartialSetupError
	if err != nil && !errors.As(err, &partial) {
		s.writeError(c, err)
		return
	}

	resp := SetupResponse{SetupResult: result, RoundsRequested: req.Rounds}
	if result != nil {
		resp.RoundsCommitted = len(result.Rounds)
	}
	if partial == nil {
		c.JSON(http.StatusOK, resp)
		return
	}

	status, kind := classify(partial.Err)
	resp.Error = partial.Error()
	resp.Kind = kind
	c.JSON(status, resp)
}

func (s *Server) handleAgenda(c *gin.Context) {
	owner := c.Query("ownerEmail")
	if owner == "" {
		badRequest(c, errors.New("ownerEmail is required"))
		return
	}
	platform, err := queryPlatform(c, "platform")
	if err != nil {
		badRequest(c, err)
		return
	}
	tasks, err := s.engine.Agenda(c.Request.Context(), owner, platform)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// CompleteTaskRequest selects the task and describes the outcome.
type CompleteTaskRequest struct {
	OwnerEmail            string `json:"ownerEmail" validate:"required,email"`
	Platform              string `json:"platform"`
	PhoneNumber           string `json:"phoneNumber"`
	Email                 string `json:"email"`
	SequenceIdx           string `json:"sequence_idx"`
	Status                string `json:"status"`
	Success               bool   `json:"success"`
	ExperimentID          int64  `json:"experimentID"`
	ExperimentGeneratorID int64  `json:"experimentGeneratorID"`
}

func (s *Server) handleCompleteTask(c *gin.Context) {
	var req CompleteTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(c, err)
		return
	}
	platform, err := optionalPlatform(req.Platform)
	if err != nil {
		badRequest(c, err)
		return
	}

	event := &models.Event{
		Platform:              platform,
		Status:                req.Status,
		OwnerEmail:            req.OwnerEmail,
		Email:                 req.Email,
		PhoneNumber:           req.PhoneNumber,
		SequenceIdx:           req.SequenceIdx,
		ExperimentID:          req.ExperimentID,
		ExperimentGeneratorID: req.ExperimentGeneratorID,
		Success:               req.Success,
	}
	task, err := s.engine.CompleteTask(c.Request.Context(), req.OwnerEmail, campaign.TaskMatch{
		Platform:    platform,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		SequenceIdx: req.SequenceIdx,
	}, event)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleListEvents(c *gin.Context) {
	platform, err := queryPlatform(c, "platform")
	if err != nil {
		badRequest(c, err)
		return
	}
	events, err := s.engine.ListEvents(c.Request.Context(), platform)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (s *Server) handleSubmitEvent(c *gin.Context) {
	var event models.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		badRequest(c, err)
		return
	}
	if event.Platform != "" && !event.Platform.Valid() {
		badRequest(c, fmt.Errorf("unknown platform %q", event.Platform))
		return
	}
	s.submit(c, event)
}

// EmailEventRequest is what the mail tracking hook posts.
type EmailEventRequest struct {
	CustomerEmail string `json:"customerEmail" validate:"required,email"`
	PostingDate   string `json:"postingDate" validate:"required"`
	Status        string `json:"status" validate:"required"`
}

func (s *Server) handleEmailEvent(c *gin.Context) {
	var req EmailEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(c, err)
		return
	}
	s.submit(c, models.Event{
		Platform:      models.PlatformEmail,
		CustomerEmail: req.CustomerEmail,
		PostingDate:   req.PostingDate,
		Status:        req.Status,
	})
}

// handleLinkedInEvent stores an arbitrary payload tagged with the LinkedIn platform.
func (s *Server) handleLinkedInEvent(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}
	event := models.EventFromFields("", payload)
	event.Platform = models.PlatformLinkedIn
	s.submit(c, event)
}

func (s *Server) submit(c *gin.Context, event models.Event) {
	stored, err := s.engine.SubmitEvent(c.Request.Context(), event)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stored)
}

// handleStatistics dumps one collection when asked, otherwise returns counts.
func (s *Server) handleStatistics(c *gin.Context) {
	ctx := c.Request.Context()
	name := c.Query("collection")
	if name == "" {
		stats, err := s.engine.Statistics(ctx)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
		return
	}

	docs, err := s.engine.Collection(ctx, name)
	if err != nil {
		s.writeError(c, err)
		return
	}
	out := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		row := map[string]any{"id": d.ID}
		for k, v := range d.Fields {
			row[k] = v
		}
		out = append(out, row)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleReplaceNaN(c *gin.Context) {
	collections := c.QueryArray("collection")
	if len(collections) == 0 {
		collections = campaign.StatisticsCollections
	}
	changed, err := importer.NormalizeCollections(c.Request.Context(), s.engine.Store(), collections)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"collections": len(collections), "changed": changed})
}
