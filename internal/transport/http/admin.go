package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	broadcastDomain "github.com/94faddy/line-oa-bot/internal/modules/broadcast/domain"
	channelDomain "github.com/94faddy/line-oa-bot/internal/modules/channel/domain"
	"github.com/94faddy/line-oa-bot/internal/modules/cooldown/ledger"
	replyDomain "github.com/94faddy/line-oa-bot/internal/modules/reply/domain"
	ruleDomain "github.com/94faddy/line-oa-bot/internal/modules/rule/domain"
	apperrors "github.com/94faddy/line-oa-bot/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

const (
	defaultHistoryLimit = 50
	maskPrefix          = "****"
)

// channelView hides credentials in admin responses.
type channelView struct {
	channelDomain.Channel
	ChannelSecret      string `json:"channelSecret"`
	ChannelAccessToken string `json:"channelAccessToken"`
}

func viewChannel(ch channelDomain.Channel) channelView {
	return channelView{
		Channel:            ch,
		ChannelSecret:      mask(ch.ChannelSecret),
		ChannelAccessToken: mask(ch.ChannelAccessToken),
	}
}

func mask(secret string) string {
	if len(secret) <= 4 {
		return maskPrefix
	}
	return maskPrefix + secret[len(secret)-4:]
}

// Channels

func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	writeData(w, lo.Map(s.channels.GetAllChannels(), func(ch channelDomain.Channel, _ int) channelView {
		return viewChannel(ch)
	}))
}

func (s *Server) handleAddChannel(w http.ResponseWriter, r *http.Request) {
	var ch channelDomain.Channel
	if err := decode(w, r, &ch); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.channels.AddChannel(ch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Success: true, Data: viewChannel(*created)})
}

func (s *Server) handleUpdateChannel(w http.ResponseWriter, r *http.Request) {
	var ch channelDomain.Channel
	if err := decode(w, r, &ch); err != nil {
		writeError(w, r, err)
		return
	}
	// Masked values echoed back from a list response keep the stored credentials.
	if strings.HasPrefix(ch.ChannelSecret, maskPrefix) {
		ch.ChannelSecret = ""
	}
	if strings.HasPrefix(ch.ChannelAccessToken, maskPrefix) {
		ch.ChannelAccessToken = ""
	}
	updated, err := s.channels.UpdateChannel(r.PathValue("id"), ch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, viewChannel(*updated))
}

func (s *Server) handleDeleteChannel(w http.ResponseWriter, r *http.Request) {
	if err := s.channels.DeleteChannel(r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "ลบ Channel สำเร็จ"})
}

func (s *Server) handleToggleChannel(w http.ResponseWriter, r *http.Request) {
	enabled, err := s.channels.ToggleChannel(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, map[string]bool{"enabled": enabled})
}

func (s *Server) handleSetFeature(w http.ResponseWriter, r *http.Request) {
	feature, err := channelDomain.ParseFeature(r.PathValue("feature"))
	if err != nil {
		writeError(w, r, oops.With("feature", r.PathValue("feature")).Wrap(apperrors.ErrInvalidContent))
		return
	}

	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := decode(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.channels.SetFeature(r.PathValue("id"), feature, body.Enabled); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, map[string]any{"feature": feature, "enabled": body.Enabled})
}

func (s *Server) handleFollowerCount(w http.ResponseWriter, r *http.Request) {
	count, supported, err := s.broadcasts.FollowerCount(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	message := fmt.Sprintf("พบ Followers ทั้งหมด %d คน", count)
	if !supported {
		message = "LINE Free Plan ไม่รองรับ Followers API กรุณาใช้ Broadcast แทน"
	}
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: message,
		Data:    map[string]any{"count": count, "supported": supported},
	})
}

// Activities

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	writeData(w, s.rules.GetAllRules())
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var rule ruleDomain.ActivityRule
	if err := decode(w, r, &rule); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.rules.CreateRule(rule)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Success: true, Data: created})
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	var rule ruleDomain.ActivityRule
	if err := decode(w, r, &rule); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.rules.UpdateRule(r.PathValue("id"), rule)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, updated)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := s.rules.DeleteRule(r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "ลบกิจกรรมสำเร็จ"})
}

func (s *Server) handleToggleRule(w http.ResponseWriter, r *http.Request) {
	enabled, err := s.rules.ToggleRule(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, map[string]bool{"enabled": enabled})
}

func (s *Server) handleClearRuleCooldowns(w http.ResponseWriter, r *http.Request) {
	cleared, err := s.rules.ClearCooldowns(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, map[string]int{"cleared": cleared})
}

// Cooldowns

type cooldownView struct {
	ledger.Entry
	Age string `json:"age"`
}

func (s *Server) handleListCooldowns(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	entries := lo.Map(s.cooldowns.Entries(), func(e ledger.Entry, _ int) cooldownView {
		return cooldownView{Entry: e, Age: ledger.FormatRemaining(now.Sub(e.FiredAt))}
	})
	writeData(w, entries)
}

func (s *Server) handleClearCooldowns(w http.ResponseWriter, r *http.Request) {
	writeData(w, map[string]int{"cleared": s.cooldowns.ClearAll()})
}

// Feature content

func (s *Server) handleGetPromotions(w http.ResponseWriter, r *http.Request) {
	writeData(w, s.content.Promotions())
}

func (s *Server) handlePutPromotions(w http.ResponseWriter, r *http.Request) {
	var cfg replyDomain.PromotionConfig
	if err := decode(w, r, &cfg); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.content.UpdatePromotions(cfg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, updated)
}

func (s *Server) handleGetRichCards(w http.ResponseWriter, r *http.Request) {
	writeData(w, s.content.RichCards())
}

func (s *Server) handlePutRichCards(w http.ResponseWriter, r *http.Request) {
	var cfg replyDomain.RichCardConfig
	if err := decode(w, r, &cfg); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.content.UpdateRichCards(cfg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, updated)
}

func (s *Server) handleGetQuickReply(w http.ResponseWriter, r *http.Request) {
	writeData(w, s.content.QuickReply())
}

func (s *Server) handlePutQuickReply(w http.ResponseWriter, r *http.Request) {
	var cfg replyDomain.QuickReplyConfig
	if err := decode(w, r, &cfg); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.content.UpdateQuickReply(cfg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, updated)
}

func (s *Server) handleGetWelcome(w http.ResponseWriter, r *http.Request) {
	writeData(w, s.content.Welcome())
}

func (s *Server) handlePutWelcome(w http.ResponseWriter, r *http.Request) {
	var cfg replyDomain.WelcomeConfig
	if err := decode(w, r, &cfg); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.content.UpdateWelcome(cfg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, updated)
}

// Broadcasts

func (s *Server) handleSubmitBroadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastDomain.Request
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	record, err := s.broadcasts.Submit(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	switch record.Status {
	case broadcastDomain.StatusScheduled:
		writeJSON(w, http.StatusAccepted, envelope{
			Success: true,
			Message: "ตั้งเวลาส่งสำเร็จ จะส่งเมื่อ " + record.ScheduledFor.Format("2006-01-02 15:04"),
			Data:    record,
		})
	case broadcastDomain.StatusFailed:
		status := lo.Ternary(record.QuotaExceeded, http.StatusTooManyRequests, http.StatusBadGateway)
		writeJSON(w, status, envelope{Success: false, Message: "ส่งข้อความไม่สำเร็จ: " + record.Error, Data: record})
	default:
		recipients := lo.Ternary(record.TargetCount > 0, strconv.Itoa(record.TargetCount), "ทั้งหมด")
		writeJSON(w, http.StatusOK, envelope{
			Success: true,
			Message: fmt.Sprintf("ส่ง %s สำเร็จ! ส่งไปยัง %s คน", record.TargetMode, recipients),
			Data:    record,
		})
	}
}

func (s *Server) handleBroadcastHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, r, oops.With("limit", raw).Wrap(apperrors.ErrInvalidContent))
			return
		}
		limit = n
	}

	records, err := s.broadcasts.History(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, lo.Ternary(records == nil, []*broadcastDomain.Record{}, records))
}

func (s *Server) handleBroadcastFeed(w http.ResponseWriter, r *http.Request) {
	baseURL := fmt.Sprintf("%s://%s", getScheme(r), r.Host)

	feed, err := s.broadcasts.Feed(r.Context(), baseURL)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rss, err := feed.ToRss()
	if err != nil {
		s.logger.Error("Error converting feed to RSS", "error", err)
		http.Error(w, "Failed to generate RSS", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(rss))
}
