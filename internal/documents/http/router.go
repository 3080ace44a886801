package http

import "github.com/gin-gonic/gin"

// Register attaches register routes to the given router group. write is
// applied to the mutating routes only.
func (h *Handler) Register(rg *gin.RouterGroup, write ...gin.HandlerFunc) {
	docs := rg.Group("/documents")
	docs.GET("", h.listDocuments)
	docs.GET("/facets", h.facets)
	docs.GET("/:id", h.getDocument)
	docs.GET("/:id/remarks", h.listRemarks)
	docs.GET("/:id/revisions/:no/file", h.downloadRevision)

	mut := docs.Group("", write...)
	mut.POST("", h.createDocument)
	mut.PUT("/:id", h.updateDocument)
	mut.PATCH("/:id", h.updateDocument)
	mut.POST("/:id/revisions", h.appendRevision)
	mut.POST("/:id/remarks", h.postRemark)

	rg.GET("/projects/summary", h.projectSummary)
}
