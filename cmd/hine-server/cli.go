package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/hine/hine/internal/config"
	"github.com/hine/hine/internal/domain/child"
	"github.com/hine/hine/internal/domain/exam"
	"github.com/hine/hine/internal/platform/db"
	"github.com/hine/hine/internal/platform/hinereport"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *db.Migrator) error {
				n, err := m.Up(ctx)
				if err != nil {
					return err
				}
				if n == 0 {
					color.Yellow("No pending migrations.")
					return nil
				}
				color.Green("Applied %d migration(s).", n)
				return nil
			})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return err
				}
				printMigrationStatus(cmd.OutOrStdout(), statuses)
				return nil
			})
		},
	}

	for _, c := range []*cobra.Command{upCmd, statusCmd} {
		c.Flags().String("dir", "", "Migrations directory (defaults to MIGRATIONS_DIR)")
		cmd.AddCommand(c)
	}
	return cmd
}

func withMigrator(cmd *cobra.Command, fn func(ctx context.Context, m *db.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = cfg.MigrationsDir
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, db.NewMigrator(pool, dir))
}

func printMigrationStatus(w io.Writer, statuses []db.MigrationStatus) {
	applied := color.New(color.FgGreen).SprintFunc()
	pending := color.New(color.FgYellow).SprintFunc()

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Version", "Name", "Status", "Applied At"})
	for _, s := range statuses {
		state, at := pending("pending"), ""
		if s.Applied {
			state = applied("applied")
			if s.AppliedAt != nil {
				at = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		table.Append([]string{fmt.Sprintf("%03d", s.Version), s.Name, state, at})
	}
	table.Render()
}

func examCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exam",
		Short: "Inspect stored HINE exams",
	}

	showCmd := &cobra.Command{
		Use:   "show <exam-id>",
		Short: "Print a reconstructed exam",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withExam(cmd, args[0], func(ex *exam.HineExam) error {
				printExam(cmd.OutOrStdout(), ex)
				return nil
			})
		},
	}

	pdfCmd := &cobra.Command{
		Use:   "pdf <exam-id>",
		Short: "Render an exam to a PDF file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			return withExam(cmd, args[0], func(ex *exam.HineExam) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				buf, err := hinereport.NewPDFRenderer(reportOptions(cfg)).ExamPDF(cmd.Context(), ex)
				if err != nil {
					return err
				}
				if out == "" {
					out = exam.AttachmentName("exam", ex.ExamID.String(), "pdf")
				}
				if err := os.WriteFile(out, buf.Bytes(), 0o600); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				color.Green("Wrote %s (%d bytes)", out, buf.Len())
				return nil
			})
		},
	}
	pdfCmd.Flags().String("out", "", "Output file (default hine_exam_<id>.pdf)")

	cmd.AddCommand(showCmd, pdfCmd)
	return cmd
}

func withExam(cmd *cobra.Command, rawID string, fn func(ex *exam.HineExam) error) error {
	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return fmt.Errorf("invalid exam id %q: %w", rawID, err)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	svc := newExamService(pool, child.NewChildRepoPG(pool), newLogger(cfg))
	ex, err := svc.GetExam(ctx, id)
	if err != nil {
		return err
	}
	return fn(ex)
}

func printExam(w io.Writer, ex *exam.HineExam) {
	fmt.Fprintf(w, "%s %s\n", color.CyanString("Exam"), ex.ExamID)
	fmt.Fprintf(w, "Patient: %s   Doctor: %s (%s)   Date: %s\n",
		ex.PatientID, ex.DoctorName, ex.DoctorID, hinereport.FormatDate(ex.ExamDate))
	if ex.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", ex.Description)
	}
	fmt.Fprintf(w, "Score: %d/%d   Asymmetries L%d R%d\n\n",
		ex.Analysis.TotalScore, ex.Analysis.MaxPossibleScore,
		ex.Analysis.TotalLeftAsymmetries, ex.Analysis.TotalRightAsymmetries)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Section", "Question", "Score", "Left", "Right", "Comment"})
	for _, m := range ex.Analysis.Modules {
		for _, r := range m.Responses {
			table.Append([]string{hinereport.ModuleLabel(m.ModuleID), r.QuestionID, score(r.SelectedValue), mark(r.LeftAsymmetry), mark(r.RightAsymmetry), r.Comment})
		}
	}
	for _, r := range ex.MotorMilestones.Responses {
		table.Append([]string{"motor milestones", r.QuestionID, score(r.SelectedValue), mark(r.LeftAsymmetry), mark(r.RightAsymmetry), r.Comment})
	}
	for _, r := range ex.Behavior.Responses {
		table.Append([]string{"behavior", r.QuestionID, score(r.SelectedValue), "", "", r.Comment})
	}
	table.Render()

	for _, group := range []struct {
		title    string
		comments []string
	}{
		{"Analysis comments", ex.Analysis.GeneralComments},
		{"Motor milestone comments", ex.MotorMilestones.GeneralComments},
		{"Behavior comments", ex.Behavior.GeneralComments},
	} {
		if len(group.comments) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", group.title)
		for _, c := range group.comments {
			fmt.Fprintf(w, "  - %s\n", c)
		}
	}
}

func score(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p)
}

func mark(b bool) string {
	if b {
		return "x"
	}
	return ""
}
