package core

// submit.go is the write path: survey form contents are validated here and
// forwarded to the external ingestion endpoint (a spreadsheet script) that
// appends them to the update log for moderation.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidSubmission is returned when form contents fail validation.
var ErrInvalidSubmission = errors.New("invalid submission")

// ErrSubmissionFailed is returned when the ingestion endpoint cannot be
// reached or rejects the payload. The caller keeps the form for a retry.
var ErrSubmissionFailed = errors.New("submission failed")

// ErrSubmitDisabled is returned when no ingestion endpoint is configured.
var ErrSubmitDisabled = errors.New("submissions disabled: ingestion endpoint not configured")

// maxIngestResponse bounds how much of the endpoint's reply is read.
const maxIngestResponse = 1 << 20

// Submission is the survey form. Booleans are checkbox states.
type Submission struct {
	PlaceID            string     `json:"place_id"`
	Action             Action     `json:"action"`
	Name               string     `json:"name"`
	Address            string     `json:"address"`
	Latitude           Coordinate `json:"latitude"`
	Longitude          Coordinate `json:"longitude"`
	RestroomOpenStatus string     `json:"restroom_open_status"`
	AdvertisedHours    string     `json:"advertised_hours"`
	ADAAccessible      bool       `json:"ada_accessible"`
	GenderNeutral      bool       `json:"gender_neutral"`
	BabyChanging       bool       `json:"baby_changing"`
	Notes              string     `json:"notes"`
}

// SubmissionForNew prepares a blank form for a new point at lat/lng.
func SubmissionForNew(lat, lng float64) Submission {
	return Submission{
		Action:    ActionNew,
		Latitude:  roundCoord(Coordinate(lat)),
		Longitude: roundCoord(Coordinate(lng)),
	}
}

// SubmissionForUpdate prepares a form prefilled from an effective record.
func SubmissionForUpdate(rec EffectiveRecord) Submission {
	return Submission{
		PlaceID:            rec.Key,
		Action:             ActionUpdate,
		Name:               rec.Name,
		Address:            rec.Address,
		Latitude:           roundCoord(rec.Latitude),
		Longitude:          roundCoord(rec.Longitude),
		RestroomOpenStatus: rec.RestroomOpenStatus,
		AdvertisedHours:    rec.AdvertisedHours,
		ADAAccessible:      IsTruthy(rec.ADAAccessible),
		GenderNeutral:      IsTruthy(rec.GenderNeutral),
		BabyChanging:       IsTruthy(rec.BabyChanging),
	}
}

// roundCoord keeps six decimals, roughly 10cm, like the form inputs.
func roundCoord(c Coordinate) Coordinate {
	if !c.Valid() {
		return c
	}
	return Coordinate(math.Round(float64(c)*1e6) / 1e6)
}

// Normalize trims text fields and lowercases the action.
func (s Submission) Normalize() Submission {
	s.PlaceID = CleanText(s.PlaceID)
	s.Action = ParseAction(string(s.Action))
	s.Name = CleanText(s.Name)
	s.Address = CleanText(s.Address)
	s.RestroomOpenStatus = CleanText(s.RestroomOpenStatus)
	s.AdvertisedHours = CleanText(s.AdvertisedHours)
	s.Notes = CleanText(s.Notes)
	return s
}

// Validate checks the rules the ingestion endpoint relies on.
func (s Submission) Validate() error {
	var errs []string
	if !s.Latitude.Valid() || !s.Longitude.Valid() {
		errs = append(errs, "please provide valid latitude/longitude")
	} else if math.Abs(float64(s.Latitude)) > 90 || math.Abs(float64(s.Longitude)) > 180 {
		errs = append(errs, "latitude/longitude out of range")
	}
	switch ParseAction(string(s.Action)) {
	case ActionNew:
	case ActionUpdate:
		if CleanText(s.PlaceID) == "" {
			errs = append(errs, "place_id is required for an update")
		}
	default:
		errs = append(errs, fmt.Sprintf("action must be %q or %q", ActionNew, ActionUpdate))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSubmission, strings.Join(errs, "; "))
	}
	return nil
}

// Payload is the flat object the ingestion endpoint expects: every field
// present, strings trimmed, booleans as true/false.
func (s Submission) Payload() map[string]any {
	n := s.Normalize()
	return map[string]any{
		ColPlaceID:            n.PlaceID,
		ColAction:             string(n.Action),
		ColName:               n.Name,
		ColAddress:            n.Address,
		ColLatitude:           float64(n.Latitude),
		ColLongitude:          float64(n.Longitude),
		ColRestroomOpenStatus: n.RestroomOpenStatus,
		ColAdvertisedHours:    n.AdvertisedHours,
		ColADAAccessible:      n.ADAAccessible,
		ColGenderNeutral:      n.GenderNeutral,
		ColBabyChanging:       n.BabyChanging,
		ColNotes:              n.Notes,
	}
}

// SubmitResult describes one accepted submission.
type SubmitResult struct {
	ID      string `json:"id"` // local correlation id for logs
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// ingestReply is what the endpoint returns; Raw is filled when the body is not JSON.
type ingestReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Raw   string `json:"-"`
}

// Submitter posts submissions to the ingestion endpoint.
type Submitter struct {
	URL    string
	Client *http.Client
}

// NewSubmitter creates a Submitter with the given per-request timeout.
func NewSubmitter(url string, timeout time.Duration) *Submitter {
	return &Submitter{URL: url, Client: &http.Client{Timeout: timeout}}
}

// Submit validates sub and posts its payload.
//
// The body is JSON sent as text/plain, which script endpoints accept without
// a CORS preflight. A reply of {"ok":true} is success; a non-JSON reply is
// judged by HTTP status alone.
func (s *Submitter) Submit(ctx context.Context, sub Submission) (SubmitResult, error) {
	sub = sub.Normalize()
	if err := sub.Validate(); err != nil {
		return SubmitResult{}, err
	}

	body, err := json.Marshal(sub.Payload())
	if err != nil {
		return SubmitResult{}, fmt.Errorf("%w: encode payload: %v", ErrSubmissionFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return SubmitResult{}, fmt.Errorf("%w: build request: %v", ErrSubmissionFailed, err)
	}
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxIngestResponse))
	if err != nil {
		return SubmitResult{}, fmt.Errorf("%w: read reply: %v", ErrSubmissionFailed, err)
	}

	reply := parseIngestReply(resp.StatusCode, raw)
	if !reply.OK {
		reason := reply.Error
		if reason == "" {
			reason = reply.Raw
		}
		if reason == "" {
			reason = "Unknown error"
		}
		return SubmitResult{}, fmt.Errorf("%w: %s", ErrSubmissionFailed, reason)
	}

	return SubmitResult{
		ID:      uuid.NewString(),
		OK:      true,
		Message: "Submitted! It will appear on the map once approved.",
	}, nil
}

func parseIngestReply(status int, raw []byte) ingestReply {
	var reply ingestReply
	if err := json.Unmarshal(raw, &reply); err == nil {
		return reply
	}
	return ingestReply{
		OK:  status >= 200 && status <= 299,
		Raw: strings.TrimSpace(string(raw)),
	}
}

// Submit forwards a submission through the concurrency limiter.
func (s *Service) Submit(ctx context.Context, sub Submission) (SubmitResult, error) {
	if s.submitter == nil || s.submitter.URL == "" {
		return SubmitResult{}, ErrSubmitDisabled
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return SubmitResult{}, err
	}
	defer s.limiter.Release()

	logger := slog.With(
		"action", string(ParseAction(string(sub.Action))),
		"place_id", CleanText(sub.PlaceID),
		"ip", GetIPAddressFromContext(ctx),
		"user_agent", GetUserAgentFromContext(ctx),
	)

	res, err := s.submitter.Submit(ctx, sub)
	if err != nil {
		logger.Warn("submission rejected", "error", err)
		return SubmitResult{}, err
	}
	logger.Info("submission forwarded", "submission_id", res.ID)
	return res, nil
}

// SubmitLimiterStatus reports how busy the write path is.
func (s *Service) SubmitLimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForSubmissions blocks until in-flight forwards finish or ctx ends.
func (s *Service) WaitForSubmissions(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
