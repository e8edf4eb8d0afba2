package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mmngreco/ine-go/src/export"
	"github.com/mmngreco/ine-go/src/ine"
	"github.com/mmngreco/ine-go/src/logger"
	"github.com/mmngreco/ine-go/src/services"
	"github.com/mmngreco/ine-go/src/utils"
)

const (
	formatJSON = "json"
	formatCSV  = "csv"
)

type SeriesHandler struct {
	service services.SeriesService
}

func NewSeriesHandler(service services.SeriesService) *SeriesHandler {
	return &SeriesHandler{service: service}
}

// HandleGetSeries serves GET /api/{lang}/series/{code}.
func (h *SeriesHandler) HandleGetSeries(w http.ResponseWriter, r *http.Request) {
	lang, ok := languageFromPath(w, r)
	if !ok {
		return
	}
	code := strings.TrimSpace(r.PathValue("code"))
	q, err := parseSeriesQuery(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	format, ok := formatFromQuery(w, r)
	if !ok {
		return
	}

	logger.FromContext(r.Context()).Info("Handling GetSeries", "code", code, "language", lang, "format", format)
	res, err := h.service.GetSeries(r.Context(), lang, code, q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if format == formatCSV {
		var buf bytes.Buffer
		if err := export.WriteSeriesCSV(&buf, res); err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeCSV(w, code, buf.Bytes())
		return
	}
	utils.WriteJSONWithETag(w, r, res)
}

// HandleGetFunctions serves GET /api/{lang}/functions and /api/{lang}/functions/{function}.
func (h *SeriesHandler) HandleGetFunctions(w http.ResponseWriter, r *http.Request) {
	lang, ok := languageFromPath(w, r)
	if !ok {
		return
	}
	format, ok := formatFromQuery(w, r)
	if !ok {
		return
	}
	function := strings.ToUpper(strings.TrimSpace(r.PathValue("function")))

	table, err := h.service.GetFunctions(r.Context(), lang, function)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if format == formatCSV {
		var buf bytes.Buffer
		if err := export.WriteTableCSV(&buf, table); err != nil {
			writeServiceError(w, r, err)
			return
		}
		if function == "" {
			function = ine.FuncOperacionesDisponibles
		}
		writeCSV(w, function, buf.Bytes())
		return
	}
	utils.WriteJSONWithETag(w, r, table)
}

// HandleGetInput serves GET /api/{lang}/input/{path...}. Query parameters are
// forwarded untouched.
func (h *SeriesHandler) HandleGetInput(w http.ResponseWriter, r *http.Request) {
	lang, ok := languageFromPath(w, r)
	if !ok {
		return
	}
	v, err := h.service.GetInput(r.Context(), lang, r.PathValue("path"), r.URL.Query())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSONWithETag(w, r, v)
}

// HandleGetTables serves GET /api/{lang}/tables, which always answers 501.
func (h *SeriesHandler) HandleGetTables(w http.ResponseWriter, r *http.Request) {
	lang, ok := languageFromPath(w, r)
	if !ok {
		return
	}
	table, err := h.service.GetTables(r.Context(), lang)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSONWithETag(w, r, table)
}

func languageFromPath(w http.ResponseWriter, r *http.Request) (ine.Language, bool) {
	lang, err := ine.ParseLanguage(r.PathValue("lang"))
	if err != nil {
		writeServiceError(w, r, err)
		return "", false
	}
	return lang, true
}

func formatFromQuery(w http.ResponseWriter, r *http.Request) (string, bool) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	switch format {
	case "", formatJSON:
		return formatJSON, true
	case formatCSV:
		return formatCSV, true
	default:
		utils.SendJSONError(w, fmt.Sprintf("unsupported format %q (want json or csv)", format), http.StatusBadRequest)
		return "", false
	}
}

// parseSeriesQuery reads date (or from/to), last and geo from the request.
func parseSeriesQuery(r *http.Request) (ine.Query, error) {
	var q ine.Query
	values := r.URL.Query()

	date := values.Get("date")
	from, to := values.Get("from"), values.Get("to")
	if date != "" && (from != "" || to != "") {
		return q, fmt.Errorf("%w: date cannot be combined with from/to", ine.ErrInvalidQuery)
	}

	var err error
	if date != "" {
		q.Date, err = ine.ParseDateSpec(date)
	} else {
		q.Date, err = utils.RangeFromBounds(from, to)
	}
	if err != nil {
		return q, err
	}

	if s := values.Get("last"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return q, fmt.Errorf("%w: last must be a non-negative integer, got %q", ine.ErrInvalidQuery, s)
		}
		q.Last = n
	}

	if s := values.Get("geo"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return q, fmt.Errorf("%w: geo must be 0 or 1, got %q", ine.ErrInvalidQuery, s)
		}
		if q.Geo, err = ine.GeoFromInt(n); err != nil {
			return q, err
		}
	}
	return q, nil
}

// statusForError maps the client's error taxonomy to gateway status codes.
func statusForError(err error) int {
	var (
		transportErr *ine.TransportError
		decodeErr    *ine.DecodeError
		malformedErr *ine.MalformedResponse
	)
	switch {
	case errors.Is(err, ine.ErrInvalidQuery), errors.Is(err, ine.ErrInvalidLanguage):
		return http.StatusBadRequest
	case errors.Is(err, ine.ErrNotImplemented):
		return http.StatusNotImplemented
	case errors.As(err, &transportErr), errors.As(err, &decodeErr), errors.As(err, &malformedErr):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads this.
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		log.Debug("Rejected request", "path", r.URL.Path, "status", status, "error", err)
	}
	utils.SendJSONError(w, err.Error(), status)
}

func writeCSV(w http.ResponseWriter, name string, data []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".csv"))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
