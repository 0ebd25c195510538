package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"bitbucket.org/mmdatafocus/activity_backend/config"
	"bitbucket.org/mmdatafocus/activity_backend/middlewares"
	"bitbucket.org/mmdatafocus/activity_backend/models"
	"bitbucket.org/mmdatafocus/activity_backend/utils"
	"bitbucket.org/mmdatafocus/activity_backend/workflow"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// statusForError maps the service error taxonomy onto HTTP statuses.
func statusForError(err error) int {
	switch utils.ErrorCodeOf(err) {
	case utils.ErrorCodeValidation:
		return http.StatusUnprocessableEntity
	case utils.ErrorCodeAuthorization:
		return http.StatusForbidden
	case utils.ErrorCodeState, utils.ErrorCodeConflict:
		return http.StatusConflict
	case utils.ErrorCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	code := utils.ErrorCodeOf(err)
	if code == utils.ErrorCodeInternal {
		logger := config.GetLogger()
		config.LogError(logger, "handlers.go", c.FullPath(), "request failed", nil, err)
	}
	c.JSON(statusForError(err), gin.H{
		"error": gin.H{
			"code":      code,
			"message":   err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func writeBindingError(c *gin.Context, err error) {
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": utils.ProcessValidationErrors(fieldErrors)})
		return
	}
	writeError(c, utils.NewValidationError("body", err.Error()))
}

func idParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		writeError(c, utils.NewValidationError("id", "must be a positive integer"))
		return 0, false
	}
	return id, true
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBindingError(c, err)
			return
		}
		token, user, err := models.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
	}
}

func createUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isAdmin, _ := utils.GetIsAdminFromContext(c.Request.Context()); !isAdmin {
			writeError(c, utils.ErrorForbidden)
			return
		}
		var input models.NewUser
		if err := c.ShouldBindJSON(&input); err != nil {
			writeBindingError(c, err)
			return
		}
		user, err := models.CreateUser(c.Request.Context(), &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

func createReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewActivityReport
		if err := c.ShouldBindJSON(&input); err != nil {
			writeBindingError(c, err)
			return
		}
		report, err := models.CreateActivityReport(c.Request.Context(), &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, report)
	}
}

func listReportsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter models.ActivityReportFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			writeBindingError(c, err)
			return
		}
		connection, err := models.PaginateActivityReports(c.Request.Context(), &filter)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, connection)
	}
}

func getReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		report, err := models.GetActivityReport(ctx, id)
		if err != nil {
			writeError(c, err)
			return
		}
		missionIds, err := models.GetReportMissionIds(ctx, id)
		if err != nil {
			writeError(c, err)
			return
		}

		// batched lookups so the listing view can hammer this endpoint
		missions, _ := middlewares.GetMissions(ctx, missionIds)
		owner, err := middlewares.GetUser(ctx, report.OwnerId)
		if err != nil {
			writeError(c, utils.NewInternalError(err))
			return
		}
		documents, err := middlewares.GetReportDocuments(ctx, id)
		if err != nil {
			writeError(c, utils.NewInternalError(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"report":    report,
			"owner":     owner,
			"missions":  missions,
			"documents": documents,
		})
	}
}

func updateReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var changes models.ActivityReportChanges
		if err := c.ShouldBindJSON(&changes); err != nil {
			writeBindingError(c, err)
			return
		}
		report, err := models.UpdateActivityReport(c.Request.Context(), id, &changes)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func deleteReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		report, err := models.DeleteActivityReport(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func submitReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		report, err := models.SubmitActivityReport(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func lockReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		report, err := models.LockActivityReport(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func listReportEntriesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		entries, err := models.ListReportEntries(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": entries})
	}
}

func exportReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		format := c.DefaultQuery("format", "csv")

		var file *models.ExportFile
		var err error
		switch format {
		case "csv":
			file, err = models.ExportActivityReportCSV(c.Request.Context(), id)
		case "xlsx":
			file, err = models.ExportActivityReportExcel(c.Request.Context(), id)
		default:
			writeError(c, utils.NewValidationError("format", "must be csv or xlsx"))
			return
		}
		if err != nil {
			writeError(c, err)
			return
		}

		c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
		c.Data(http.StatusOK, file.ContentType, file.Content)
	}
}

func listReportDocumentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		documents, err := models.ListReportDocuments(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": documents})
	}
}

func createEntryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewEntry
		if err := c.ShouldBindJSON(&input); err != nil {
			writeBindingError(c, err)
			return
		}
		entry, err := models.CreateEntry(c.Request.Context(), &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, entry)
	}
}

type updateEntryRequest struct {
	models.EntryChanges
	MissionId *int `json:"mission_id"`
}

func updateEntryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var req updateEntryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBindingError(c, err)
			return
		}
		entry, err := models.UpdateEntry(c.Request.Context(), id, &req.EntryChanges, req.MissionId)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}

func deleteEntryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		entry, err := models.DestroyEntry(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}

func getEntryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		entry, err := models.GetEntry(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}

func createMissionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewMission
		if err := c.ShouldBindJSON(&input); err != nil {
			writeBindingError(c, err)
			return
		}
		mission, err := models.CreateMission(c.Request.Context(), &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, mission)
	}
}

func listMissionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		missions, err := models.ListMissions(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": missions})
	}
}

func getMissionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		mission, err := models.GetMission(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, mission)
	}
}

// Ops tooling (admin only): repair the derived mission link cache.
func rebuildMissionLinksHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isAdmin, _ := utils.GetIsAdminFromContext(c.Request.Context()); !isAdmin {
			writeError(c, utils.ErrorForbidden)
			return
		}
		drifted, err := workflow.RebuildMissionLinks(c.Request.Context(), config.GetDB(), config.GetLogger())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"drifted": drifted})
	}
}

// Ops tooling (admin only): recompute report totals and report drift.
func totalsRecheckHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isAdmin, _ := utils.GetIsAdminFromContext(c.Request.Context()); !isAdmin {
			writeError(c, utils.ErrorForbidden)
			return
		}
		repair := c.DefaultQuery("repair", "false") == "true"
		drifts, err := workflow.RunTotalsReconciliation(c.Request.Context(), config.GetDB(), config.GetLogger(), repair)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"drifted": len(drifts), "reports": drifts})
	}
}
