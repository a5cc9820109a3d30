package queue

import (
	"database/sql"
	"errors"
	"time"
)

const taskColumns = "id, status, source_path, template, type_tag, asset_id, client_id, ex_date, record_json, attempts, last_result_code, error_message, backup_ref, created_at, updated_at"

func scanTask(scanner interface{ Scan(dest ...any) error }) (*Task, error) {
	var (
		id             int64
		statusStr      string
		sourcePath     sql.NullString
		templateName   string
		typeTag        string
		assetID        string
		clientID       sql.NullString
		exDateRaw      string
		recordJSON     string
		attempts       sql.NullInt64
		lastResultCode sql.NullString
		errorMessage   sql.NullString
		backupRef      sql.NullString
		createdRaw     sql.NullString
		updatedRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&statusStr,
		&sourcePath,
		&templateName,
		&typeTag,
		&assetID,
		&clientID,
		&exDateRaw,
		&recordJSON,
		&attempts,
		&lastResultCode,
		&errorMessage,
		&backupRef,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	task := &Task{
		ID:             id,
		Status:         Status(statusStr),
		Source:         sourcePath.String,
		Template:       templateName,
		TypeTag:        typeTag,
		AssetID:        assetID,
		ClientID:       clientID.String,
		RecordJSON:     recordJSON,
		Attempts:       int(attempts.Int64),
		LastResultCode: lastResultCode.String,
		ErrorMessage:   errorMessage.String,
		BackupRef:      backupRef.String,
	}
	if exDate, err := parseTimeString(exDateRaw); err == nil {
		task.ExDate = exDate
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		task.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		task.UpdatedAt = updated
	}
	return task, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
