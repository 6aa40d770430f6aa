package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/uav-gcs/internal/command"
	"github.com/taoyao-code/uav-gcs/internal/link"
)

// RegisterRoutes 注册操作端路由
func RegisterRoutes(r *gin.Engine, sess *link.Session, cmd *command.Client, logger *zap.Logger) {
	if r == nil || sess == nil || cmd == nil {
		return
	}
	h := NewHandler(sess, cmd, logger)

	apiGroup := r.Group("/api")
	apiGroup.GET("/state", h.GetState)

	cmds := apiGroup.Group("/commands")
	cmds.POST("/arm", h.Arm)
	cmds.POST("/disarm", h.Disarm)
	cmds.POST("/takeoff", h.Takeoff)
	cmds.POST("/land", h.Land)
	cmds.POST("/mode", h.SetMode)
}
