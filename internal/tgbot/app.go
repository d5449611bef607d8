package tgbot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tournament-bot/internal/config"
	"tournament-bot/internal/ledger"
	"tournament-bot/internal/locale"
	"tournament-bot/internal/models"
	"tournament-bot/internal/nlp"
	"tournament-bot/internal/sheets"
	"tournament-bot/internal/store"
	"tournament-bot/internal/util"
	"tournament-bot/internal/validation"
)

// App binds the Telegram transport to the registration core: it detects the
// utterance language, parses intents, applies them to the ledger and
// renders the typed outcome back to the chat.
type App struct {
	cfg    config.Config
	bot    *tgbotapi.BotAPI
	led    *ledger.Ledger
	parser *nlp.Parser
	loc    *locale.Localizer
	st     *store.Store
	mirror *sheets.Client // nil when the Sheets mirror is disabled
}

func New(cfg config.Config, led *ledger.Ledger, st *store.Store, mirror *sheets.Client) (*App, error) {
	b, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, err
	}
	b.Debug = false
	return &App{
		cfg:    cfg,
		bot:    b,
		led:    led,
		parser: nlp.NewParser(),
		loc:    locale.New(cfg.DefaultLanguage),
		st:     st,
		mirror: mirror,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd := <-updates:
			if upd.Message != nil {
				if err := a.handleMessage(upd.Message); err != nil {
					log.Printf("handle msg: %v", err)
				}
			} else if upd.CallbackQuery != nil {
				if err := a.handleCallback(upd.CallbackQuery); err != nil {
					log.Printf("handle cb: %v", err)
				}
			}
		}
	}
}

func (a *App) SendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := a.bot.Send(msg)
	return err
}

func (a *App) sendHTML(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "HTML"
	_, err := a.bot.Send(msg)
	return err
}

// ---------- Message handling ----------

func (a *App) handleMessage(m *tgbotapi.Message) error {
	chatID := m.Chat.ID
	lang := a.loc.Resolve(m.From.LanguageCode)
	txt := strings.TrimSpace(m.Text)

	if m.IsCommand() {
		switch m.Command() {
		case "start":
			return a.showStart(chatID, lang)
		case "help":
			return a.showHelp(chatID, lang)
		case "list":
			return a.adminOnly(m, lang, a.showList)
		case "stats":
			return a.adminOnly(m, lang, a.showStats)
		case "export":
			return a.adminOnly(m, lang, a.exportData)
		case "clear":
			return a.adminOnly(m, lang, a.clearData)
		case "confirm":
			return a.adminOnly(m, lang, a.confirmCommand)
		default:
			return a.SendText(chatID, a.loc.Text("unrecognized", lang))
		}
	}
	if txt == "" {
		return nil
	}
	return a.handleUtterance(m, txt, lang)
}

func (a *App) handleUtterance(m *tgbotapi.Message, txt, lang string) error {
	chatID := m.Chat.ID
	userID := m.From.ID
	username := m.From.UserName

	lang = nlp.DetectLanguage(txt, lang)
	intent := a.parser.Parse(txt, lang)

	switch intent.Kind {
	case models.IntentSetTeamName:
		name, err := a.led.ApplySetName(userID, username, intent.TeamName, lang)
		if err != nil {
			return a.SendText(chatID, a.renderReject(err, lang, intent))
		}
		log.Printf("user %s (%d) set team name %q", username, userID, name)
		return a.SendText(chatID, fmt.Sprintf(a.loc.Text("team_name_saved", lang), name)+"\n\n"+a.loc.Text("next_step_rating", lang))

	case models.IntentRegisterRating:
		entry, err := a.led.ApplyRegisterRating(userID, username, intent.Tournament, intent.Rating, lang)
		if err != nil {
			return a.SendText(chatID, a.renderReject(err, lang, intent))
		}
		log.Printf("user %s (%d) staged %s rating %d", username, userID, entry.Tournament.Label(), entry.Rating)
		return a.SendText(chatID,
			fmt.Sprintf(a.loc.Text("rating_saved", lang), entry.Tournament.Label(), entry.Rating)+
				"\n\n"+a.loc.Text("awaiting_confirmation", lang))

	case models.IntentConfirm:
		if !a.cfg.IsAdmin(username) {
			// Terminal for this action; keep an audit trail.
			log.Printf("AUDIT: unauthorized confirm attempt by %s (%d) targeting @%s", username, userID, intent.TargetUser)
			return a.SendText(chatID, a.loc.Text("not_authorized", lang))
		}
		return a.applyConfirm(chatID, username, intent.TargetUser, intent.Tournament, false, lang)

	default:
		return a.SendText(chatID, a.loc.Text("unrecognized", lang))
	}
}

// applyConfirm promotes the target's pending entries. When no tournament is
// named, every pending format for the user is confirmed in turn.
func (a *App) applyConfirm(chatID int64, admin, target string, t models.Tournament, force bool, lang string) error {
	target, err := validation.Username(target)
	if err != nil {
		return a.SendText(chatID, a.loc.Text("bad_username", lang))
	}

	tournaments := []models.Tournament{t}
	if !t.Valid() {
		tournaments = a.led.PendingTournaments(target)
		if len(tournaments) == 0 {
			return a.SendText(chatID, fmt.Sprintf(a.loc.Text("no_pending", lang), target))
		}
	}

	lines := []string{}
	for _, tt := range tournaments {
		rec, err := a.led.ApplyConfirm(admin, target, tt, force)
		if err != nil {
			lines = append(lines, a.renderReject(err, lang, models.Intent{TargetUser: target, Tournament: tt}))
			continue
		}
		log.Printf("AUDIT: admin %s confirmed @%s in %s (%s, %d)", admin, rec.Username, rec.Tournament.Label(), rec.TeamName, rec.Rating)
		lines = append(lines, fmt.Sprintf(a.loc.Text("confirmed", lang), rec.Username, rec.Tournament.Label(), rec.TeamName, rec.Rating))
		a.persistConfirm(rec)
	}
	return a.SendText(chatID, strings.Join(lines, "\n"))
}

// persistConfirm flushes the snapshot and mirrors the record. Failures are
// logged only: persistence never rolls back an applied mutation.
func (a *App) persistConfirm(rec models.ConfirmedRegistration) {
	if err := a.st.Save(a.led.Snapshot()); err != nil {
		log.Printf("save after confirm: %v", err)
	}
	if a.mirror != nil {
		go func() {
			if err := a.mirror.MirrorConfirmed(rec); err != nil {
				log.Printf("sheets mirror: %v", err)
			}
		}()
	}
}

func (a *App) renderReject(err error, lang string, in models.Intent) string {
	var rej *ledger.Reject
	if !errors.As(err, &rej) {
		log.Printf("apply: %v", err)
		return a.loc.Text("unrecognized", lang)
	}
	switch rej.Kind {
	case ledger.RejectRateLimited:
		return a.loc.Text("rate_limited", lang)
	case ledger.RejectIncomplete:
		return fmt.Sprintf(a.loc.Text("incomplete", lang), in.TargetUser, in.Tournament.Label())
	case ledger.RejectNoPending:
		return fmt.Sprintf(a.loc.Text("no_pending", lang), in.TargetUser)
	case ledger.RejectAlreadyConfirmed:
		return fmt.Sprintf(a.loc.Text("already_confirmed", lang), in.TargetUser, in.Tournament.Label())
	default:
		return fmt.Sprintf(a.loc.Text("validation_failed", lang), rej.Err)
	}
}

// ---------- Screens ----------

func (a *App) showStart(chatID int64, lang string) error {
	msg := tgbotapi.NewMessage(chatID, a.loc.Text("welcome", lang)+"\n\n"+a.loc.Text("instructions", lang))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(a.loc.Text("help_button", lang), "help"),
			tgbotapi.NewInlineKeyboardButtonData(a.loc.Text("examples_button", lang), "examples"),
		),
	)
	_, err := a.bot.Send(msg)
	return err
}

func (a *App) showHelp(chatID int64, lang string) error {
	lines := []string{a.loc.Text("help_header", lang), ""}
	for _, ex := range nlp.Examples(lang) {
		lines = append(lines, "• "+ex)
	}
	lines = append(lines, "", a.loc.Text("admin_help", lang))
	lines = append(lines, "", fmt.Sprintf(a.loc.Text("expired_note", lang), a.cfg.PendingTTL))
	return a.SendText(chatID, strings.Join(lines, "\n"))
}

// ---------- Callback handling ----------

func (a *App) handleCallback(q *tgbotapi.CallbackQuery) error {
	lang := a.loc.Resolve(q.From.LanguageCode)

	cb := tgbotapi.NewCallback(q.ID, "")
	_, _ = a.bot.Request(cb)

	chatID := q.From.ID
	if q.Message != nil {
		chatID = q.Message.Chat.ID
	}

	switch q.Data {
	case "help":
		return a.showHelp(chatID, lang)
	case "examples":
		return a.SendText(chatID, strings.Join(nlp.Examples(lang), "\n"))
	}
	return nil
}

// ---------- Admin commands ----------

func (a *App) adminOnly(m *tgbotapi.Message, lang string, fn func(m *tgbotapi.Message, lang string) error) error {
	if !a.cfg.IsAdmin(m.From.UserName) {
		log.Printf("AUDIT: unauthorized /%s by %s (%d)", m.Command(), m.From.UserName, m.From.ID)
		return a.SendText(m.Chat.ID, a.loc.Text("not_authorized", lang))
	}
	return fn(m, lang)
}

func (a *App) showList(m *tgbotapi.Message, lang string) error {
	parts := []string{}
	total := 0
	for _, t := range models.Tournaments {
		regs := a.led.ListConfirmed(t)
		total += len(regs)
		header := fmt.Sprintf("🏆 <b>%s tournament:</b>", t.Label())
		if len(regs) == 0 {
			parts = append(parts, header+" —")
			continue
		}
		parts = append(parts, header)
		for i, r := range regs {
			parts = append(parts, fmt.Sprintf("%d. ✅ @%s: <b>%s</b> (%d ⭐)",
				i+1, util.EscapeHTML(r.Username), util.EscapeHTML(r.TeamName), r.Rating))
		}
		parts = append(parts, "")
	}

	pending := a.led.ListPending()
	total += len(pending)
	if len(pending) > 0 {
		parts = append(parts, a.loc.Text("pending_header", lang))
		for _, p := range pending {
			rating := "—"
			if p.HasRating {
				rating = fmt.Sprintf("%d ⭐", p.Rating)
			}
			name := p.TeamName
			if name == "" {
				name = "—"
			}
			parts = append(parts, fmt.Sprintf("• ⏳ @%s — %s: %s (%s)",
				util.EscapeHTML(p.Username), p.Tournament.Label(), util.EscapeHTML(name), rating))
		}
	}

	if total == 0 {
		return a.SendText(m.Chat.ID, a.loc.Text("no_registrations", lang))
	}
	return a.sendHTML(m.Chat.ID, strings.Join(parts, "\n"))
}

func (a *App) showStats(m *tgbotapi.Message, lang string) error {
	st := a.led.Stats()
	parts := []string{"📊 <b>Tournament statistics:</b>", ""}
	for _, ts := range st.PerTournament {
		line := fmt.Sprintf("%s: %d confirmed, %d pending", ts.Tournament.Label(), ts.Confirmed, ts.Pending)
		if ts.Confirmed > 0 {
			line += fmt.Sprintf(" (ratings %d–%d, avg %.1f)", ts.MinRating, ts.MaxRating, ts.AvgRating)
		}
		parts = append(parts, line)
	}
	last := "Never"
	if !st.LastSubmissionAt.IsZero() {
		last = st.LastSubmissionAt.Format("2006-01-02 15:04:05")
	}
	parts = append(parts, "",
		fmt.Sprintf("📈 Submissions: %d total, %d confirmed", st.TotalSubmissions, st.ConfirmedTotal),
		fmt.Sprintf("🕐 Last submission: %s", last),
	)
	return a.sendHTML(m.Chat.ID, strings.Join(parts, "\n"))
}

func (a *App) exportData(m *tgbotapi.Message, lang string) error {
	snap := a.led.Snapshot()
	payload := struct {
		ExportedAt string          `json:"exported_at"`
		Snapshot   models.Snapshot `json:"snapshot"`
		Stats      models.Stats    `json:"stats"`
	}{
		ExportedAt: util.NowISO(),
		Snapshot:   snap,
		Stats:      a.led.Stats(),
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}

	name := fmt.Sprintf("tournament_data_%s.json", time.Now().Format("20060102_150405"))
	doc := tgbotapi.NewDocument(m.Chat.ID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = a.loc.Text("export_done", lang)
	_, err = a.bot.Send(doc)
	log.Printf("AUDIT: admin %s exported data", m.From.UserName)
	return err
}

func (a *App) clearData(m *tgbotapi.Message, lang string) error {
	if !strings.EqualFold(strings.TrimSpace(m.CommandArguments()), "confirm") {
		return a.SendText(m.Chat.ID, a.loc.Text("clear_confirm_ask", lang))
	}
	a.led.Clear()
	if err := a.st.Save(a.led.Snapshot()); err != nil {
		log.Printf("save after clear: %v", err)
	}
	log.Printf("AUDIT: admin %s cleared all tournament data", m.From.UserName)
	return a.SendText(m.Chat.ID, a.loc.Text("cleared", lang))
}

// confirmCommand is the explicit admin form:
// /confirm <username> [vsa|h2h] [force]. force is the only path that
// overwrites an already confirmed slot, and it re-runs full validation.
func (a *App) confirmCommand(m *tgbotapi.Message, lang string) error {
	args := strings.Fields(m.CommandArguments())
	if len(args) == 0 {
		return a.SendText(m.Chat.ID, a.loc.Text("bad_username", lang))
	}
	target := strings.TrimPrefix(args[0], "@")

	var t models.Tournament
	force := false
	for _, arg := range args[1:] {
		if tt, ok := models.ParseTournament(arg); ok {
			t = tt
		} else if strings.EqualFold(arg, "force") {
			force = true
		}
	}
	return a.applyConfirm(m.Chat.ID, m.From.UserName, target, t, force, lang)
}
