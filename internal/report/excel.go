package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"masterok/internal/models"
)

const workloadSheet = "Workload"

// Directory lists the masters a report covers.
type Directory interface {
	ListActiveMasters(ctx context.Context, city string) ([]models.Master, error)
}

// ScheduleSource loads a master's schedule record.
type ScheduleSource interface {
	LoadSchedule(ctx context.Context, masterID int64) (models.ScheduleRecord, error)
}

// Generator builds XLSX workload reports.
type Generator struct {
	directory Directory
	schedules ScheduleSource
	logger    *zerolog.Logger
}

func NewGenerator(directory Directory, schedules ScheduleSource, logger *zerolog.Logger) *Generator {
	return &Generator{
		directory: directory,
		schedules: schedules,
		logger:    logger,
	}
}

// Workload writes one row per master per day in [from, to] to w. Days a
// master has no schedule entry for are skipped.
func (g *Generator) Workload(ctx context.Context, w io.Writer, city string, from, to time.Time) error {
	if to.Before(from) {
		return fmt.Errorf("report range end %s before start %s",
			models.DateKey(to), models.DateKey(from))
	}

	masters, err := g.directory.ListActiveMasters(ctx, city)
	if err != nil {
		return fmt.Errorf("list masters: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", workloadSheet)

	headers := []string{"Master ID", "Full Name", "City", "Date", "Available", "Slot", "Booked Jobs"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(workloadSheet, cell, h); err != nil {
			return err
		}
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		start, _ := excelize.CoordinatesToCellName(1, 1)
		end, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(workloadSheet, start, end, style)
	}

	row := 2
	for _, master := range masters {
		record, err := g.schedules.LoadSchedule(ctx, master.ID)
		if err != nil {
			g.logger.Warn().Err(err).Int64("master_id", master.ID).
				Msg("skipping master in workload report")
			continue
		}

		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			day, ok := record.Day(d)
			if !ok {
				continue
			}

			slot := ""
			if day.TimeSlot != nil {
				slot = day.TimeSlot.Start + "-" + day.TimeSlot.End
			}
			values := []any{
				master.ID, master.FullName, master.City,
				day.Date, day.Available, slot, len(day.BookedJobs),
			}
			for i, v := range values {
				cell, err := excelize.CoordinatesToCellName(i+1, row)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(workloadSheet, cell, v); err != nil {
					return err
				}
			}
			row++
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	g.logger.Info().
		Int("masters", len(masters)).
		Int("rows", row-2).
		Str("from", models.DateKey(from)).
		Str("to", models.DateKey(to)).
		Msg("workload report generated")
	return nil
}
