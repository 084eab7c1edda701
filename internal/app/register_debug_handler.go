// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/accel_computer/internal/adxl345"
	"github.com/relabs-tech/accel_computer/internal/command"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RegisterRange is an inclusive range of register addresses.
type RegisterRange struct {
	Lo, Hi adxl345.Register
}

// ParseRegisterRanges parses a list such as "0x1D-0x2A,0x2C-0x2F,0x38".
func ParseRegisterRanges(s string) ([]RegisterRange, error) {
	var out []RegisterRange
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		a, err := strconv.ParseUint(strings.TrimSpace(lo), 0, 8)
		if err != nil {
			return nil, fmt.Errorf("register range %q: %w", part, err)
		}
		b := a
		if isRange {
			if b, err = strconv.ParseUint(strings.TrimSpace(hi), 0, 8); err != nil {
				return nil, fmt.Errorf("register range %q: %w", part, err)
			}
		}
		if b < a {
			return nil, fmt.Errorf("register range %q: end before start", part)
		}
		out = append(out, RegisterRange{Lo: adxl345.Register(a), Hi: adxl345.Register(b)})
	}
	return out, nil
}

// isRegisterWritable reports whether the debug tool may write reg: it must
// be a read-write register and, when ranges are configured, fall inside one.
func isRegisterWritable(reg adxl345.Register, ranges []RegisterRange) bool {
	if !reg.Writable() {
		return false
	}
	if len(ranges) == 0 {
		return true
	}
	for _, r := range ranges {
		if reg >= r.Lo && reg <= r.Hi {
			return true
		}
	}
	return false
}

// RegisterResponse is every message the debug tool sends.
type RegisterResponse struct {
	Type        string             `json:"type"` // "register_data", "register_map", "status", "error"
	Device      string             `json:"device,omitempty"`
	Address     string             `json:"addr,omitempty"`
	Name        string             `json:"name,omitempty"`
	Value       string             `json:"value,omitempty"`
	Registers   map[string]string  `json:"registers,omitempty"`
	Timestamp   string             `json:"timestamp,omitempty"`
	Message     string             `json:"message,omitempty"`
	Status      string             `json:"status,omitempty"`
	Scale       int                `json:"scale,omitempty"`
	RegisterMap []registerInfoJSON `json:"register_map,omitempty"`
}

type registerInfoJSON struct {
	Address string `json:"address"`
	Default string `json:"default"`
	adxl345.RegisterInfo
}

// RegisterConfigFile is the JSON layout of an exported register dump.
type RegisterConfigFile struct {
	Version   int               `json:"version"`
	Device    string            `json:"device"`
	Timestamp string            `json:"timestamp"`
	Registers map[string]string `json:"registers"` // hex address -> hex value
}

// RegisterDebug serves the register debug websocket for one session.
type RegisterDebug struct {
	sess     *Session
	writable []RegisterRange
	log      *log.Entry
}

// NewRegisterDebug limits writes to the given ranges ("" allows every
// read-write register).
func NewRegisterDebug(sess *Session, writable string) (*RegisterDebug, error) {
	ranges, err := ParseRegisterRanges(writable)
	if err != nil {
		return nil, err
	}
	return &RegisterDebug{
		sess:     sess,
		writable: ranges,
		log:      log.WithField("component", "register_debug"),
	}, nil
}

// registerDebugConn is the state of one websocket client.
type registerDebugConn struct {
	*RegisterDebug
	conn *websocket.Conn
	ctx  context.Context
}

// HandleRegisterDebugWS handles the websocket connection for register
// debugging.
func (d *RegisterDebug) HandleRegisterDebugWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.log.Warnf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	c := &registerDebugConn{RegisterDebug: d, conn: conn, ctx: r.Context()}
	if err := c.sendRegisterMap(); err != nil {
		d.log.Warnf("error sending register map: %v", err)
		return
	}

	for {
		var rawMsg map[string]interface{}
		if err := conn.ReadJSON(&rawMsg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				d.log.Warnf("websocket error: %v", err)
			}
			return
		}

		action, ok := rawMsg["action"].(string)
		if !ok {
			c.sendError("missing or invalid action field")
			continue
		}

		switch action {
		case "get_map":
			c.sendRegisterMap()
		case "read":
			c.handleRead(rawMsg)
		case "read_all":
			c.handleReadAll()
		case "write":
			c.handleWrite(rawMsg)
		case "init", "calibrate", "device":
			c.handleCommand(action)
		case "command":
			line, _ := rawMsg["line"].(string)
			c.handleCommand(line)
		case "export_config":
			c.handleExportConfig()
		default:
			c.sendError(fmt.Sprintf("unknown action: %s", action))
		}
	}
}

func parseHexByte(s string) (byte, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 8)
	return byte(v), err
}

func (c *registerDebugConn) handleRead(rawMsg map[string]interface{}) {
	addr, _ := rawMsg["addr"].(string)
	if addr == "" {
		c.sendError("missing addr field")
		return
	}
	reg, err := parseHexByte(addr)
	if err != nil {
		c.sendError(fmt.Sprintf("invalid address format: %s", addr))
		return
	}
	value, err := c.sess.ReadRegister(c.ctx, adxl345.Register(reg))
	if err != nil {
		c.sendError(fmt.Sprintf("read error: %v", err))
		return
	}
	c.conn.WriteJSON(RegisterResponse{
		Type:      "register_data",
		Device:    SourceName,
		Address:   fmt.Sprintf("0x%02X", reg),
		Name:      adxl345.Register(reg).String(),
		Value:     fmt.Sprintf("0x%02X", value),
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (c *registerDebugConn) readAll() (map[string]string, error) {
	registers, err := c.sess.ReadAllRegisters(c.ctx)
	if err != nil {
		return nil, err
	}
	regMap := make(map[string]string, len(registers))
	for addr, value := range registers {
		regMap[fmt.Sprintf("0x%02X", byte(addr))] = fmt.Sprintf("0x%02X", value)
	}
	return regMap, nil
}

func (c *registerDebugConn) handleReadAll() {
	regMap, err := c.readAll()
	if err != nil {
		c.sendError(fmt.Sprintf("read all error: %v", err))
		return
	}
	c.conn.WriteJSON(RegisterResponse{
		Type:      "register_data",
		Device:    SourceName,
		Registers: regMap,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (c *registerDebugConn) handleWrite(rawMsg map[string]interface{}) {
	addr, _ := rawMsg["addr"].(string)
	valueStr, _ := rawMsg["value"].(string)
	if addr == "" || valueStr == "" {
		c.sendError("missing addr or value field")
		return
	}
	reg, err := parseHexByte(addr)
	if err != nil {
		c.sendError(fmt.Sprintf("invalid address format: %s", addr))
		return
	}
	value, err := parseHexByte(valueStr)
	if err != nil {
		c.sendError(fmt.Sprintf("invalid value format: %s", valueStr))
		return
	}
	if !isRegisterWritable(adxl345.Register(reg), c.writable) {
		c.sendError(fmt.Sprintf("register 0x%02X not in allowed write ranges", reg))
		return
	}
	if err := c.sess.WriteRegister(c.ctx, adxl345.Register(reg), value); err != nil {
		c.sendError(fmt.Sprintf("write error: %v", err))
		return
	}
	c.log.Infof("wrote %s = 0x%02X", adxl345.Register(reg), value)
	c.conn.WriteJSON(RegisterResponse{
		Type:      "register_data",
		Device:    SourceName,
		Address:   fmt.Sprintf("0x%02X", reg),
		Name:      adxl345.Register(reg).String(),
		Value:     fmt.Sprintf("0x%02X", value),
		Timestamp: time.Now().Format(time.RFC3339),
		Scale:     c.sess.Scale(),
		Message:   "write successful",
	})
}

// handleCommand runs a textual control command ("init", "format 1 16", ...).
func (c *registerDebugConn) handleCommand(line string) {
	out, err := command.Run(c.ctx, c.sess, line)
	if err != nil {
		c.sendError(fmt.Sprintf("command %q: %v", line, err))
		return
	}
	if out == "" {
		out = "ignored"
	}
	c.conn.WriteJSON(RegisterResponse{
		Type:    "status",
		Device:  SourceName,
		Status:  out,
		Scale:   c.sess.Scale(),
		Message: line,
	})
}

func (c *registerDebugConn) handleExportConfig() {
	regMap, err := c.readAll()
	if err != nil {
		c.sendError(fmt.Sprintf("export error: %v", err))
		return
	}
	configJSON, _ := json.Marshal(RegisterConfigFile{
		Version:   1,
		Device:    SourceName,
		Timestamp: time.Now().Format(time.RFC3339),
		Registers: regMap,
	})
	c.conn.WriteJSON(map[string]interface{}{
		"type":     "export_config",
		"device":   SourceName,
		"message":  "config exported",
		"config":   string(configJSON),
		"filename": fmt.Sprintf("%s_%s_registers.json", SourceName, time.Now().Format("20060102_150405")),
	})
}

func (c *registerDebugConn) sendRegisterMap() error {
	regs := adxl345.RegisterMap()
	mapped := make([]registerInfoJSON, len(regs))
	for i, r := range regs {
		mapped[i] = registerInfoJSON{
			Address:      fmt.Sprintf("0x%02X", byte(r.Address)),
			Default:      fmt.Sprintf("0x%02X", r.Default),
			RegisterInfo: r,
		}
	}
	return c.conn.WriteJSON(RegisterResponse{
		Type:        "register_map",
		Device:      SourceName,
		RegisterMap: mapped,
	})
}

func (c *registerDebugConn) sendError(message string) {
	c.conn.WriteJSON(RegisterResponse{
		Type:    "error",
		Message: message,
	})
}

// HandleSampleData serves one live status read as JSON.
func (d *RegisterDebug) HandleSampleData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	s, fresh, err := d.sess.Read(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error": %q}`, err.Error()), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(struct {
		Sample interface{} `json:"sample"`
		Fresh  bool        `json:"fresh"`
		Status string      `json:"status"`
	}{s, fresh, command.StatusLine(s)})
}
