// Package export writes the sync audit trail to an excel workbook for
// offline review.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/tealeg/xlsx"

	"voicepipe/internal/app/model"
)

// ToExcel writes one row per sync attempt plus a per-status summary sheet.
func ToExcel(logs []model.SyncLog, outputFilePath string) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Sync Attempts")
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	headerRow := sheet.AddRow()
	headerRow.AddCell().Value = "ID"
	headerRow.AddCell().Value = "Recording"
	headerRow.AddCell().Value = "Provider"
	headerRow.AddCell().Value = "Status"
	headerRow.AddCell().Value = "Contacts Synced"
	headerRow.AddCell().Value = "Tasks Synced"
	headerRow.AddCell().Value = "Remote IDs"
	headerRow.AddCell().Value = "Error Message"
	headerRow.AddCell().Value = "Attempted At"

	for _, l := range logs {
		row := sheet.AddRow()
		row.AddCell().Value = l.ID
		row.AddCell().Value = l.RecordingID
		row.AddCell().Value = l.Provider
		row.AddCell().Value = string(l.Status)
		row.AddCell().Value = fmt.Sprint(l.ContactsSynced)
		row.AddCell().Value = fmt.Sprint(l.TasksSynced)
		row.AddCell().Value = strings.Join(l.RemoteIDs, ", ")
		row.AddCell().Value = l.ErrorMessage
		row.AddCell().Value = l.CreatedAt.Format(time.RFC3339)
	}

	summary, err := file.AddSheet("Summary")
	if err != nil {
		return fmt.Errorf("add summary sheet: %w", err)
	}
	summaryHeader := summary.AddRow()
	summaryHeader.AddCell().Value = "Status"
	summaryHeader.AddCell().Value = "Attempts"
	summaryHeader.AddCell().Value = "Contacts Synced"
	summaryHeader.AddCell().Value = "Tasks Synced"

	byStatus := lo.GroupBy(logs, func(l model.SyncLog) model.SyncStatus {
		return l.Status
	})
	for _, status := range []model.SyncStatus{model.SyncCompleted, model.SyncPartial, model.SyncFailed, model.SyncSkipped} {
		group, ok := byStatus[status]
		if !ok {
			continue
		}
		row := summary.AddRow()
		row.AddCell().Value = string(status)
		row.AddCell().Value = fmt.Sprint(len(group))
		row.AddCell().Value = fmt.Sprint(lo.SumBy(group, func(l model.SyncLog) int { return l.ContactsSynced }))
		row.AddCell().Value = fmt.Sprint(lo.SumBy(group, func(l model.SyncLog) int { return l.TasksSynced }))
	}

	if err := file.Save(outputFilePath); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
