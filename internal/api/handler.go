package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/uav-gcs/internal/command"
	"github.com/taoyao-code/uav-gcs/internal/link"
	"github.com/taoyao-code/uav-gcs/internal/mavlink"
)

// Handler 操作端 REST 处理器：状态查询与命令下发
type Handler struct {
	sess *link.Session
	cmd  *command.Client
	log  *zap.Logger
}

// NewHandler 创建处理器
func NewHandler(sess *link.Session, cmd *command.Client, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{sess: sess, cmd: cmd, log: logger}
}

// GetState 返回会话与飞行器状态快照
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sessionId": h.sess.ID(),
		"state":     h.sess.State().Snapshot(),
	})
}

type takeoffRequest struct {
	AltitudeMeters float32 `json:"altitudeMeters" binding:"required,gt=0"`
}

type setModeRequest struct {
	BaseMode   uint8  `json:"baseMode"`
	CustomMode uint32 `json:"customMode"`
}

// Arm 解锁
func (h *Handler) Arm(c *gin.Context) {
	h.finishCommand(c, mavlink.CmdComponentArmDisarm, h.cmd.Arm())
}

// Disarm 上锁
func (h *Handler) Disarm(c *gin.Context) {
	h.finishCommand(c, mavlink.CmdComponentArmDisarm, h.cmd.Disarm())
}

// Takeoff 起飞到指定相对高度
func (h *Handler) Takeoff(c *gin.Context) {
	var req takeoffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.finishCommand(c, mavlink.CmdNavTakeoff, h.cmd.Takeoff(req.AltitudeMeters))
}

// Land 降落
func (h *Handler) Land(c *gin.Context) {
	h.finishCommand(c, mavlink.CmdNavLand, h.cmd.Land())
}

// SetMode 切换飞行模式
func (h *Handler) SetMode(c *gin.Context) {
	var req setModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.cmd.SetMode(req.BaseMode, req.CustomMode); err != nil {
		h.commandError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"sent": true})
}

// finishCommand 统一处理命令结果；?await=2s 时同步等待回执
func (h *Handler) finishCommand(c *gin.Context, cmd uint16, err error) {
	if err != nil {
		h.commandError(c, err)
		return
	}
	if raw := c.Query("await"); raw != "" {
		timeout, perr := time.ParseDuration(raw)
		if perr != nil || timeout <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid await duration"})
			return
		}
		ack, aerr := h.cmd.AwaitAck(cmd, timeout)
		if aerr != nil {
			c.JSON(http.StatusGatewayTimeout, gin.H{"sent": true, "ack": nil, "error": aerr.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sent": true, "ack": gin.H{
			"command": ack.Command,
			"result":  ack.Result.String(),
		}})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"sent": true})
}

func (h *Handler) commandError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, command.ErrNoTarget):
		c.JSON(http.StatusConflict, gin.H{"error": "target not captured yet"})
	case errors.Is(err, command.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "command rate limited"})
	default:
		h.log.Error("command send failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
