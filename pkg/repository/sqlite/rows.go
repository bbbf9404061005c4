package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/retrace-dev/retrace/pkg/domain/model"
	"github.com/retrace-dev/retrace/pkg/domain/types"
	"github.com/retrace-dev/retrace/pkg/utils/logging"
)

func scanEvents(ctx context.Context, rows *sql.Rows) ([]*model.ActivityEvent, error) {
	logger := logging.From(ctx)

	var events []*model.ActivityEvent
	for rows.Next() {
		var (
			id                       int64
			ts, recordType           string
			triggeredBy              sql.NullString
			windowTitle, processName sql.NullString
			appName, pageTitle, url  sql.NullString
			pid                      sql.NullInt64
			fromApp, toApp           sql.NullString
			screenshotPath, ocrText  sql.NullString
			mouseX, mouseY           sql.NullInt64
			button                   sql.NullString
		)
		if err := rows.Scan(&id, &ts, &recordType, &triggeredBy,
			&windowTitle, &processName, &appName, &pageTitle, &url, &pid,
			&fromApp, &toApp, &screenshotPath, &ocrText,
			&mouseX, &mouseY, &button); err != nil {
			return nil, goerr.Wrap(err, "failed to scan event row")
		}

		timestamp, err := time.Parse(timeLayout, ts)
		if err != nil {
			// Data-integrity failure: skip the single offending row,
			// never abort the surrounding batch.
			logger.Warn("skipping event with malformed timestamp",
				"id", id, "timestamp", ts, "error", err.Error())
			continue
		}

		events = append(events, &model.ActivityEvent{
			ID:             id,
			Timestamp:      timestamp,
			RecordType:     types.RecordType(recordType),
			TriggeredBy:    types.Trigger(triggeredBy.String),
			WindowTitle:    windowTitle.String,
			ProcessName:    processName.String,
			AppName:        appName.String,
			PageTitle:      pageTitle.String,
			URL:            url.String,
			PID:            int(pid.Int64),
			FromApp:        fromApp.String,
			ToApp:          toApp.String,
			ScreenshotPath: screenshotPath.String,
			OCRText:        ocrText.String,
			MouseX:         int(mouseX.Int64),
			MouseY:         int(mouseY.Int64),
			Button:         button.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate event rows")
	}
	return events, nil
}
