package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/skillhive/backend/internal/models"
	"github.com/skillhive/backend/pkg/logger"
)

// globalLogDB is set once at startup so the package-level Log* helpers can
// persist entries without threading a DB handle through every caller.
var globalLogDB *gorm.DB

// InitSystemLogger wires the package-level log helpers to the database.
func InitSystemLogger(db *gorm.DB) {
	globalLogDB = db
}

func writeSystemLog(level, module, action, message string, userID *uint, ip, userAgent string, extra map[string]interface{}) {
	if globalLogDB == nil {
		return
	}

	extraJSON := ""
	if len(extra) > 0 {
		if data, err := json.Marshal(extra); err == nil {
			extraJSON = string(data)
		}
	}

	entry := &models.SystemLog{
		Level:     level,
		Module:    module,
		Action:    action,
		Message:   message,
		UserID:    userID,
		IP:        ip,
		UserAgent: userAgent,
		Extra:     extraJSON,
	}
	if err := globalLogDB.Create(entry).Error; err != nil {
		logger.Errorf("write system log: %v", err)
	}
}

// LogInfo records an informational entry.
func LogInfo(module, action, message string, userID *uint, ip, userAgent string, extra map[string]interface{}) {
	writeSystemLog("info", module, action, message, userID, ip, userAgent, extra)
}

// LogWarning records a warning entry.
func LogWarning(module, action, message string, userID *uint, ip, userAgent string, extra map[string]interface{}) {
	writeSystemLog("warning", module, action, message, userID, ip, userAgent, extra)
}

// LogError records an error entry.
func LogError(module, action, message string, userID *uint, ip, userAgent string, extra map[string]interface{}) {
	writeSystemLog("error", module, action, message, userID, ip, userAgent, extra)
}

// SystemLogService reads and prunes persisted system logs.
type SystemLogService struct {
	db *gorm.DB
}

func NewSystemLogService(db *gorm.DB) *SystemLogService {
	return &SystemLogService{db: db}
}

// SystemLogFilter narrows List results.
type SystemLogFilter struct {
	Level  string
	Module string
	UserID uint
	Page   int
	Limit  int
}

// List returns logs matching the filter, newest first.
func (s *SystemLogService) List(filter SystemLogFilter) ([]models.SystemLog, int64, error) {
	query := s.db.Model(&models.SystemLog{})
	if filter.Level != "" {
		query = query.Where("level = ?", filter.Level)
	}
	if filter.Module != "" {
		query = query.Where("module = ?", filter.Module)
	}
	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}

	var logs []models.SystemLog
	err := query.Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&logs).Error
	return logs, total, err
}

// GetModules returns the distinct module tags present in the log.
func (s *SystemLogService) GetModules() ([]string, error) {
	var modules []string
	err := s.db.Model(&models.SystemLog{}).
		Distinct("module").
		Order("module ASC").
		Pluck("module", &modules).Error
	return modules, err
}

// logRetentionDays is how long system log rows are kept before pruning.
const logRetentionDays = 30

// CleanupOldLogs deletes entries older than the retention window.
func (s *SystemLogService) CleanupOldLogs() (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -logRetentionDays)
	result := s.db.Unscoped().Where("created_at < ?", cutoff).Delete(&models.SystemLog{})
	return result.RowsAffected, result.Error
}

// StartLogCleanupScheduler prunes old logs once a day.
func StartLogCleanupScheduler(c *cron.Cron, db *gorm.DB) error {
	svc := NewSystemLogService(db)
	_, err := c.AddFunc("@daily", func() {
		deleted, err := svc.CleanupOldLogs()
		if err != nil {
			logger.Errorf("system log cleanup: %v", err)
			return
		}
		if deleted > 0 {
			logger.Infof("system log cleanup removed %d entries", deleted)
			LogInfo("system", "log_cleanup",
				fmt.Sprintf("removed %d entries older than %d days", deleted, logRetentionDays),
				nil, "", "", nil)
		}
	})
	return err
}
