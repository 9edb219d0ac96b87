package server

import (
	"errors"
	nethttp "net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/polyterm/polyterm/internal/analysis"
	"github.com/polyterm/polyterm/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *nethttp.Request) bool { return true },
}

// 推送轮询间隔与单连接最长保活时间
const (
	streamPollInterval = 500 * time.Millisecond
	streamMaxLifetime  = 10 * time.Minute
)

// streamAnalysis 通过 websocket 推送任务状态变化，
// 到达终态（completed/failed）或任务过期后推送最后一帧并关闭连接。
func (s *Service) streamAnalysis(w nethttp.ResponseWriter, r *nethttp.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		nethttp.Error(w, "analysis id is required", nethttp.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("stream %s: websocket upgrade failed: %v", id, err)
		return
	}
	defer conn.Close()

	deadline := time.Now().Add(streamMaxLifetime)
	ticker := time.NewTicker(streamPollInterval)
	defer ticker.Stop()

	var lastStatus models.JobStatus
	var lastProgress float64
	first := true

	for {
		job, err := s.pipeline.Status(r.Context(), id)
		if errors.Is(err, analysis.ErrJobNotFound) {
			conn.WriteJSON(map[string]string{"error": "analysis not found or expired"})
			return
		}
		if err != nil {
			s.log.Warnf("stream %s: status read failed: %v", id, err)
			return
		}

		changed := first || job.Status != lastStatus || job.Progress != lastProgress
		if changed {
			resp := models.AnalysisResponse{
				AnalysisID: job.ID,
				Status:     job.Status,
				Progress:   job.Progress,
				Error:      job.Error,
				Result:     job.Result,
			}
			if err := conn.WriteJSON(resp); err != nil {
				return
			}
			lastStatus = job.Status
			lastProgress = job.Progress
			first = false
		}

		if job.Status == models.JobCompleted || job.Status == models.JobFailed {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(job.Status)))
			return
		}
		if time.Now().After(deadline) {
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
