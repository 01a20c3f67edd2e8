package signal

import "time"

func (ctl *Controller) handleHeartbeat(c *WsConn) {
	ctl.sendJSON(c, heartbeatResponse{
		Type:      "heartbeat-response",
		Timestamp: time.Now().UTC(),
	})
}
