package bot

import (
    "context"
    "errors"
    "strings"
    "time"

    tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
    "go.uber.org/zap"

    "quotebot/internal/audit"
    "quotebot/internal/dispatch"
    "quotebot/internal/source"
)

// Config is the transport-level configuration.
type Config struct {
    OperatorID int64
    RetryDelay time.Duration // delay before re-polling after a transport error
}

// Bot is the Telegram transport: it resolves inbound updates into dispatch
// requests once at the boundary and renders results back as Markdown.
type Bot struct {
    api      *tgbotapi.BotAPI
    d        *dispatch.Dispatcher
    recorder *audit.Recorder // may be nil
    cfg      Config
    log      *zap.Logger

    tz *time.Location
}

func New(api *tgbotapi.BotAPI, d *dispatch.Dispatcher, recorder *audit.Recorder, cfg Config, log *zap.Logger) *Bot {
    if cfg.RetryDelay <= 0 { cfg.RetryDelay = 5 * time.Second }
    if log == nil { log = zap.NewNop() }
    tz, err := time.LoadLocation("Asia/Taipei")
    if err != nil { tz = time.FixedZone("CST", 8*3600) }
    return &Bot{api: api, d: d, recorder: recorder, cfg: cfg, log: log, tz: tz}
}

// Run polls for updates until ctx is done. Transport-level errors never
// stop the loop; polling resumes after the fixed retry delay.
func (b *Bot) Run(ctx context.Context) error {
    b.log.Info("bot started", zap.String("username", b.api.Self.UserName))
    offset := 0
    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        default:
        }
        updates, err := b.api.GetUpdates(tgbotapi.UpdateConfig{Offset: offset, Timeout: 30})
        if err != nil {
            b.log.Warn("poll failed, retrying", zap.Error(err), zap.Duration("delay", b.cfg.RetryDelay))
            select {
            case <-ctx.Done():
                return ctx.Err()
            case <-time.After(b.cfg.RetryDelay):
            }
            continue
        }
        for _, u := range updates {
            if u.UpdateID >= offset {
                offset = u.UpdateID + 1
            }
            b.handleUpdate(ctx, u)
        }
    }
}

func (b *Bot) handleUpdate(ctx context.Context, u tgbotapi.Update) {
    switch {
    case u.CallbackQuery != nil:
        b.handleCallback(ctx, u.CallbackQuery)
    case u.Message != nil && u.Message.IsCommand():
        b.handleCommand(ctx, u.Message)
    case u.Message != nil && u.Message.Text != "":
        b.handleText(ctx, u.Message)
    }
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
    switch msg.Command() {
    case "start", "price":
        b.welcome(msg)
    case "spread":
        b.handleSetSpread(msg)
    case "cost":
        b.serve(ctx, dispatch.Request{
            Mode:   dispatch.ModeCost,
            Kind:   dispatch.KindMessage,
            UserID: msg.From.ID,
            Arg:    strings.TrimSpace(msg.CommandArguments()),
        }, msg.Chat.ID, 0)
    }
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
    mode, ok := modeForLabel(msg.Text)
    if !ok {
        return
    }
    b.serve(ctx, dispatch.Request{Mode: mode, Kind: dispatch.KindMessage, UserID: msg.From.ID}, msg.Chat.ID, 0)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
    // ack first so the button stops spinning
    if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
        b.log.Debug("callback ack failed", zap.Error(err))
    }
    mode, ok := modeForCallback(cb.Data)
    if !ok || cb.Message == nil {
        return
    }
    b.serve(ctx, dispatch.Request{Mode: mode, Kind: dispatch.KindCallback, UserID: cb.From.ID},
        cb.Message.Chat.ID, cb.Message.MessageID)
}

// serve runs one request and replies with either the rendered quote or the
// mapped failure text. KindCallback edits the originating message in place.
func (b *Bot) serve(ctx context.Context, req dispatch.Request, chatID int64, messageID int) {
    res, err := b.d.Handle(ctx, req)
    var text string
    switch {
    case err == nil:
        text = renderResult(res, time.Now().In(b.tz))
    case errors.Is(err, dispatch.ErrPermissionDenied):
        // operator-only command from someone else: refuse without rate data
        text = textPermissionDenied
    case errors.Is(err, dispatch.ErrInvalidInput):
        text = textCostUsage
    case errors.Is(err, dispatch.ErrUnknownMode):
        return
    case errors.Is(err, source.ErrUnavailable), errors.Is(err, dispatch.ErrPartialData):
        b.log.Warn("quote failed", zap.String("mode", string(req.Mode)), zap.Error(err))
        text = textUnavailable
    default:
        b.log.Warn("quote failed", zap.String("mode", string(req.Mode)), zap.Error(err))
        text = textUnavailable
    }

    if req.Kind == dispatch.KindCallback {
        edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
        edit.ParseMode = tgbotapi.ModeMarkdown
        kb := switchKeyboard()
        edit.ReplyMarkup = &kb
        if _, err := b.api.Send(edit); err != nil {
            b.log.Warn("edit failed", zap.Error(err))
        }
        return
    }
    reply := tgbotapi.NewMessage(chatID, text)
    reply.ParseMode = tgbotapi.ModeMarkdown
    reply.ReplyMarkup = switchKeyboard()
    if _, err := b.api.Send(reply); err != nil {
        b.log.Warn("send failed", zap.Error(err))
    }
}

func (b *Bot) handleSetSpread(msg *tgbotapi.Message) {
    arg := strings.TrimSpace(msg.CommandArguments())
    v, err := b.d.SetSpread(msg.From.ID, arg)
    var text string
    switch {
    case err == nil:
        text = renderSpreadSet(v)
    case errors.Is(err, dispatch.ErrPermissionDenied):
        text = textPermissionDenied
    case errors.Is(err, dispatch.ErrInvalidInput):
        text = textSpreadUsage
    default:
        return
    }
    reply := tgbotapi.NewMessage(msg.Chat.ID, text)
    reply.ParseMode = tgbotapi.ModeMarkdown
    if _, err := b.api.Send(reply); err != nil {
        b.log.Warn("send failed", zap.Error(err))
    }
}

// welcome greets the user, shows the quote keyboard, and records the
// contact. Both the operator notification and the audit write are
// best-effort and never delay the reply.
func (b *Bot) welcome(msg *tgbotapi.Message) {
    user := msg.From
    if user != nil {
        if b.recorder != nil {
            b.recorder.Enqueue(audit.Entry{
                Time:        time.Now().UTC(),
                DisplayName: strings.TrimSpace(user.FirstName + " " + user.LastName),
                UserID:      user.ID,
                Username:    user.UserName,
            })
        }
        if b.cfg.OperatorID != 0 && user.ID != b.cfg.OperatorID {
            note := tgbotapi.NewMessage(b.cfg.OperatorID, renderNewUser(user))
            note.ParseMode = tgbotapi.ModeMarkdown
            if _, err := b.api.Send(note); err != nil {
                b.log.Debug("operator notify failed", zap.Error(err))
            }
        }
    }
    reply := tgbotapi.NewMessage(msg.Chat.ID, textWelcome)
    reply.ParseMode = tgbotapi.ModeMarkdown
    reply.ReplyMarkup = mainKeyboard()
    if _, err := b.api.Send(reply); err != nil {
        b.log.Warn("send failed", zap.Error(err))
    }
}
