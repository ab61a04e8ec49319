// Package reporting exposes predefined aggregate measures over stored exams.
package reporting

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/hine/hine/internal/platform/apperr"
	"github.com/hine/hine/internal/platform/auth"
)

const dateLayout = "2006-01-02"

// MeasureDefinition defines a reporting measure with its SQL query. Every
// query takes the reporting window as $1 (inclusive) and $2 (exclusive).
type MeasureDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SQL         string `json:"-"`
}

// Window is the exam creation interval a measure is evaluated over.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// MeasureReport holds the results of evaluating a measure.
type MeasureReport struct {
	MeasureID   string                   `json:"measure_id"`
	MeasureName string                   `json:"measure_name"`
	GeneratedAt time.Time                `json:"generated_at"`
	Window      Window                   `json:"window"`
	Results     []map[string]interface{} `json:"results"`
}

// PredefinedMeasures is the list of available reporting measures.
var PredefinedMeasures = []MeasureDefinition{
	{
		ID:          "exam-volume-by-doctor",
		Name:        "Exam Volume by Doctor",
		Description: "Number of live exams performed by each doctor",
		SQL: `SELECT e.doctor_id, concat_ws(' ', d.name, d.last_name) AS doctor_name, COUNT(*) AS total
			FROM exams e JOIN doctors d ON d.id = e.doctor_id
			WHERE NOT e.eliminated AND e.created_at >= $1 AND e.created_at < $2
			GROUP BY e.doctor_id, d.name, d.last_name
			ORDER BY total DESC, e.doctor_id`,
	},
	{
		ID:          "mean-analysis-score-by-module",
		Name:        "Mean Analysis Score by Module",
		Description: "Average obtained score of each analysis module across exams",
		SQL: `SELECT module_id, COUNT(*) AS exams, ROUND(AVG(obtained)::numeric, 2)::float8 AS mean_score
			FROM (
				SELECT substring(s.section_name FROM 10) AS module_id, COALESCE(SUM(i.score), 0) AS obtained
				FROM sections s
				JOIN exams e ON e.id = s.id_exam
				LEFT JOIN items i ON i.section_id = s.id
				WHERE NOT e.eliminated AND s.section_name LIKE 'analysis:%'
					AND e.created_at >= $1 AND e.created_at < $2
				GROUP BY s.id, s.section_name
			) m
			GROUP BY module_id
			ORDER BY module_id`,
	},
	{
		ID:          "asymmetry-prevalence",
		Name:        "Asymmetry Prevalence",
		Description: "Share of analysis items with a left or right asymmetry, per module",
		SQL: `SELECT substring(s.section_name FROM 10) AS module_id,
				COUNT(*) AS items,
				COUNT(*) FILTER (WHERE i.left_asimetric_count > 0) AS left_items,
				COUNT(*) FILTER (WHERE i.right_asimetric_count > 0) AS right_items,
				ROUND(AVG(CASE WHEN i.left_asimetric_count > 0 OR i.right_asimetric_count > 0 THEN 1 ELSE 0 END)::numeric, 3)::float8 AS prevalence
			FROM items i
			JOIN sections s ON s.id = i.section_id
			JOIN exams e ON e.id = s.id_exam
			WHERE NOT e.eliminated AND s.section_name LIKE 'analysis:%'
				AND e.created_at >= $1 AND e.created_at < $2
			GROUP BY module_id
			ORDER BY module_id`,
	},
	{
		ID:          "exams-per-month",
		Name:        "Exams per Month",
		Description: "Number of live exams created per calendar month",
		SQL: `SELECT to_char(date_trunc('month', created_at), 'YYYY-MM') AS month, COUNT(*) AS total
			FROM exams
			WHERE NOT eliminated AND created_at >= $1 AND created_at < $2
			GROUP BY 1
			ORDER BY 1`,
	},
}

// Querier is satisfied by *pgxpool.Pool.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// Handler provides HTTP handlers for the reporting API.
type Handler struct {
	db  Querier
	now func() time.Time
}

// NewHandler creates a new reporting handler.
func NewHandler(db Querier) *Handler {
	return &Handler{db: db, now: time.Now}
}

// RegisterRoutes registers the reporting API routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	reportGroup := api.Group("/reports", auth.RequireRole(auth.RoleAdmin, auth.RoleDoctor))
	reportGroup.GET("/measures", h.ListMeasures)
	reportGroup.GET("/measures/:id", h.EvaluateMeasure)
}

// ListMeasures returns all available measure definitions.
func (h *Handler) ListMeasures(c echo.Context) error {
	return c.JSON(http.StatusOK, PredefinedMeasures)
}

// ParseWindow reads the optional from/to query values (YYYY-MM-DD). The
// window defaults to everything up to and including today; to is inclusive.
func ParseWindow(from, to string, now time.Time) (Window, error) {
	w := Window{From: time.Unix(0, 0).UTC(), To: now.UTC().Truncate(24*time.Hour).AddDate(0, 0, 1)}
	if from != "" {
		t, err := time.Parse(dateLayout, from)
		if err != nil {
			return Window{}, apperr.Validation("from", "from must be a YYYY-MM-DD date")
		}
		w.From = t
	}
	if to != "" {
		t, err := time.Parse(dateLayout, to)
		if err != nil {
			return Window{}, apperr.Validation("to", "to must be a YYYY-MM-DD date")
		}
		w.To = t.AddDate(0, 0, 1)
	}
	if !w.From.Before(w.To) {
		return Window{}, apperr.Validation("from", "from must not be after to")
	}
	return w, nil
}

// EvaluateMeasure executes a measure's SQL and returns the results.
func (h *Handler) EvaluateMeasure(c echo.Context) error {
	measure := FindMeasure(c.Param("id"))
	if measure == nil {
		return apperr.NotFound("measure %s not found", c.Param("id"))
	}
	w, err := ParseWindow(c.QueryParam("from"), c.QueryParam("to"), h.now())
	if err != nil {
		return err
	}

	results, err := h.executeSQL(c.Request().Context(), measure.SQL, w.From, w.To)
	if err != nil {
		return apperr.Persistence(err, "evaluate measure %s failed", measure.ID)
	}

	return c.JSON(http.StatusOK, MeasureReport{
		MeasureID:   measure.ID,
		MeasureName: measure.Name,
		GeneratedAt: h.now(),
		Window:      w,
		Results:     results,
	})
}

// executeSQL runs a SQL query and returns results as a slice of maps.
func (h *Handler) executeSQL(ctx context.Context, sql string, args ...interface{}) ([]map[string]interface{}, error) {
	rows, err := h.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	results := []map[string]interface{}{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(fieldDescs))
		for i, fd := range fieldDescs {
			row[fd.Name] = values[i]
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// FindMeasure looks up a measure by ID.
func FindMeasure(id string) *MeasureDefinition {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}
