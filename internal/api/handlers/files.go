package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/nagare-ai/chat-service/internal/api/dto"
	"github.com/nagare-ai/chat-service/internal/api/middleware"
	"github.com/nagare-ai/chat-service/internal/core/docdb"
	domainerrors "github.com/nagare-ai/chat-service/internal/domain/errors"
	"github.com/nagare-ai/chat-service/internal/domain/models"
	"github.com/nagare-ai/chat-service/internal/services/files"
	"github.com/nagare-ai/chat-service/internal/services/policy"
)

// MaxUploadBytes caps the accepted upload size.
const MaxUploadBytes = 64 << 20

// FilesHandler handles file upload and vector store endpoints.
type FilesHandler struct {
	filesClient *files.Client
	db          docdb.Client
	policy      *policy.Service
}

// NewFilesHandler creates a new FilesHandler.
func NewFilesHandler(filesClient *files.Client, db docdb.Client, policySvc *policy.Service) *FilesHandler {
	return &FilesHandler{
		filesClient: filesClient,
		db:          db,
		policy:      policySvc,
	}
}

// UploadFile handles POST /files
// @Summary Upload a file
// @Description Uploads a file to the provider under the given purpose
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File content"
// @Param purpose formData string false "Upload purpose" default(assistants)
// @Success 200 {object} dto.UploadFileResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/chat-service/files [post]
func (h *FilesHandler) UploadFile(c *gin.Context) {
	if h.policy != nil && !h.policy.FileUploadAllowed() {
		middleware.HandleError(c, domainerrors.NewForbiddenError("file upload is disabled by policy"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		middleware.HandleError(c, domainerrors.NewValidationError("file is required", err.Error()))
		return
	}
	if fileHeader.Size > MaxUploadBytes {
		middleware.HandleError(c, domainerrors.NewValidationError("file is too large", fileHeader.Filename))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		middleware.HandleError(c, domainerrors.NewInternalError("failed to open upload", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		middleware.HandleError(c, domainerrors.NewInternalError("failed to read upload", err))
		return
	}

	purpose := c.PostForm("purpose")
	switch purpose {
	case "", files.PurposeAssistants, files.PurposeVision, files.PurposeUserData:
	default:
		middleware.HandleError(c, domainerrors.NewValidationError("unsupported purpose", purpose))
		return
	}

	uploaded, err := h.filesClient.UploadFile(c.Request.Context(), fileHeader.Filename, data, purpose)
	if err != nil {
		middleware.HandleError(c, domainerrors.NewInternalError("file upload failed", err))
		return
	}

	c.JSON(http.StatusOK, dto.UploadFileResponse{
		FileID:   uploaded.ID,
		Filename: uploaded.Filename,
		Bytes:    uploaded.Bytes,
		Purpose:  uploaded.Purpose,
	})
}

// DeleteFile handles DELETE /files/{fileId}
// @Summary Delete a file
// @Description Deletes a previously uploaded file from the provider
// @Tags Files
// @Produce json
// @Param fileId path string true "File ID"
// @Success 204 "No Content"
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/chat-service/files/{fileId} [delete]
func (h *FilesHandler) DeleteFile(c *gin.Context) {
	fileID := c.Param("fileId")

	if err := h.filesClient.DeleteFile(c.Request.Context(), fileID); err != nil {
		middleware.HandleError(c, domainerrors.NewInternalError("failed to delete file", err))
		return
	}

	c.Status(http.StatusNoContent)
}

// CreateVectorStore handles POST /vector-stores
// @Summary Create a vector store
// @Description Creates a provider vector store and registers it locally
// @Tags VectorStores
// @Accept json
// @Produce json
// @Param request body dto.CreateVectorStoreRequest true "Vector store attributes"
// @Success 201 {object} dto.VectorStoreResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/chat-service/vector-stores [post]
func (h *FilesHandler) CreateVectorStore(c *gin.Context) {
	if h.policy != nil && !h.policy.VectorStoreAllowed() {
		middleware.HandleError(c, domainerrors.NewForbiddenError("vector stores are disabled by policy"))
		return
	}

	var req dto.CreateVectorStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, domainerrors.NewValidationError("invalid request body", err.Error()))
		return
	}

	ctx := c.Request.Context()
	remote, err := h.filesClient.CreateVectorStore(ctx, req.Name)
	if err != nil {
		middleware.HandleError(c, domainerrors.NewInternalError("failed to create vector store", err))
		return
	}

	now := time.Now().UTC()
	store := &models.VectorStore{
		ID:        uuid.NewString(),
		RemoteID:  remote.ID,
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := h.db.VectorStores().InsertOne(ctx, store); err != nil {
		middleware.HandleError(c, domainerrors.NewInternalError("failed to register vector store", err))
		return
	}

	c.JSON(http.StatusCreated, dto.VectorStoreResponse{
		ID:       store.ID,
		RemoteID: store.RemoteID,
		Name:     store.Name,
	})
}

// ListVectorStores handles GET /vector-stores
// @Summary List vector stores
// @Description Lists locally registered vector stores
// @Tags VectorStores
// @Produce json
// @Success 200 {array} dto.VectorStoreResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/chat-service/vector-stores [get]
func (h *FilesHandler) ListVectorStores(c *gin.Context) {
	ctx := c.Request.Context()

	cursor, err := h.db.VectorStores().Find(ctx, bson.M{}, &docdb.FindOptions{
		Sort: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		middleware.HandleError(c, domainerrors.NewInternalError("failed to list vector stores", err))
		return
	}
	defer cursor.Close(ctx)

	var stores []*models.VectorStore
	if err := cursor.All(ctx, &stores); err != nil {
		middleware.HandleError(c, domainerrors.NewInternalError("failed to decode vector stores", err))
		return
	}

	out := make([]*dto.VectorStoreResponse, 0, len(stores))
	for _, store := range stores {
		out = append(out, &dto.VectorStoreResponse{
			ID:       store.ID,
			RemoteID: store.RemoteID,
			Name:     store.Name,
			FileIDs:  store.FileIDs,
		})
	}
	c.JSON(http.StatusOK, out)
}

// AddVectorStoreFile handles POST /vector-stores/{storeId}/files
// @Summary Attach a file to a vector store
// @Description Attaches a previously uploaded file to a vector store for indexing
// @Tags VectorStores
// @Accept json
// @Produce json
// @Param storeId path string true "Vector store ID"
// @Param request body dto.AddVectorStoreFileRequest true "File reference"
// @Success 200 {object} dto.VectorStoreResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/chat-service/vector-stores/{storeId}/files [post]
func (h *FilesHandler) AddVectorStoreFile(c *gin.Context) {
	var req dto.AddVectorStoreFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, domainerrors.NewValidationError("invalid request body", err.Error()))
		return
	}

	ctx := c.Request.Context()
	storeID := c.Param("storeId")

	var store models.VectorStore
	if err := h.db.VectorStores().FindOne(ctx, bson.M{"_id": storeID}).Decode(&store); err != nil {
		middleware.HandleError(c, domainerrors.NewNotFoundError("vector store", storeID))
		return
	}

	if _, err := h.filesClient.AddFileToVectorStore(ctx, store.RemoteID, req.FileID); err != nil {
		middleware.HandleError(c, domainerrors.NewInternalError("failed to attach file to vector store", err))
		return
	}

	store.FileIDs = append(store.FileIDs, req.FileID)
	store.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{"fileIds": store.FileIDs, "updatedAt": store.UpdatedAt}}
	if _, err := h.db.VectorStores().UpdateOne(ctx, bson.M{"_id": store.ID}, update); err != nil {
		middleware.HandleError(c, domainerrors.NewInternalError("failed to update vector store", err))
		return
	}

	c.JSON(http.StatusOK, dto.VectorStoreResponse{
		ID:       store.ID,
		RemoteID: store.RemoteID,
		Name:     store.Name,
		FileIDs:  store.FileIDs,
	})
}
