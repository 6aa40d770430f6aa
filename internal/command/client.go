package command

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/uav-gcs/internal/mavlink"
	"github.com/taoyao-code/uav-gcs/internal/metrics"
	"github.com/taoyao-code/uav-gcs/internal/state"
)

var (
	// ErrNoTarget 尚未从对端心跳捕获目标系统/组件
	ErrNoTarget = errors.New("command: target not captured")
	// ErrRateLimited 命令发送超过限流
	ErrRateLimited = errors.New("command: rate limited")
)

// Sender 出站发送接口（由链路会话实现，内部已串行化所有写）
type Sender interface {
	Send(msgID uint32, payload []byte) error
}

// Client 面向已捕获目标的命令客户端。
// 默认“发完即忘”：返回值只表示字节是否发出，不代表飞行器接受；
// 回执通过 AwaitAck/LastAck 尽力关联。
type Client struct {
	sender  Sender
	st      *state.State
	acks    *AckTracker
	limiter *RateLimiter
	m       *metrics.AppMetrics
	log     *zap.Logger
}

// NewClient 创建命令客户端；m 可为 nil
func NewClient(sender Sender, st *state.State, acks *AckTracker, limiter *RateLimiter, m *metrics.AppMetrics, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{sender: sender, st: st, acks: acks, limiter: limiter, m: m, log: logger}
}

// Arm 解锁（MAV_CMD_COMPONENT_ARM_DISARM, param1=1）
func (c *Client) Arm() error {
	return c.sendCommand(mavlink.CmdComponentArmDisarm, [7]float32{1})
}

// Disarm 上锁（MAV_CMD_COMPONENT_ARM_DISARM, param1=0）
func (c *Client) Disarm() error {
	return c.sendCommand(mavlink.CmdComponentArmDisarm, [7]float32{})
}

// Takeoff 起飞到指定相对高度（米，param7）
func (c *Client) Takeoff(altitudeMeters float32) error {
	var params [7]float32
	params[6] = altitudeMeters
	return c.sendCommand(mavlink.CmdNavTakeoff, params)
}

// Land 原地降落
func (c *Client) Land() error {
	return c.sendCommand(mavlink.CmdNavLand, [7]float32{})
}

// SetMode 切换飞行模式（SET_MODE 消息，非 COMMAND_LONG）
func (c *Client) SetMode(baseMode uint8, customMode uint32) error {
	sys, _, ok := c.st.Target()
	if !ok {
		return ErrNoTarget
	}
	if c.limiter != nil && !c.limiter.Allow() {
		return ErrRateLimited
	}
	p := mavlink.SetMode{CustomMode: customMode, TargetSystem: sys, BaseMode: baseMode}
	if err := c.sender.Send(mavlink.MsgIDSetMode, p.Pack()); err != nil {
		return err
	}
	c.log.Info("set_mode sent",
		zap.Uint8("base_mode", baseMode), zap.Uint32("custom_mode", customMode))
	return nil
}

func (c *Client) sendCommand(cmd uint16, params [7]float32) error {
	sys, comp, ok := c.st.Target()
	if !ok {
		return ErrNoTarget
	}
	if c.limiter != nil && !c.limiter.Allow() {
		return ErrRateLimited
	}

	c.acks.Issue(cmd)
	cl := mavlink.CommandLong{
		Params:          params,
		Command:         cmd,
		TargetSystem:    sys,
		TargetComponent: comp,
	}
	if err := c.sender.Send(mavlink.MsgIDCommandLong, cl.Pack()); err != nil {
		return err
	}
	if c.m != nil {
		c.m.CommandTotal.WithLabelValues(fmt.Sprintf("%d", cmd)).Inc()
	}
	c.log.Info("command sent",
		zap.Uint16("command", cmd),
		zap.Uint8("target_system", sys), zap.Uint8("target_component", comp))
	return nil
}

// AwaitAck 阻塞等待某命令ID的下一个回执（尽力关联，见 AckTracker）
func (c *Client) AwaitAck(cmd uint16, timeout time.Duration) (Ack, error) {
	return c.acks.Await(cmd, timeout)
}

// LastAck 该命令ID自最近一次发出后观察到的回执
func (c *Client) LastAck(cmd uint16) (Ack, bool) {
	return c.acks.Last(cmd)
}
