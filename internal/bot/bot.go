package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskplanner/internal/logging"
	"taskplanner/internal/model"
	"taskplanner/internal/notify"
	"taskplanner/internal/service"
	"taskplanner/internal/timeutil"
	"taskplanner/internal/triage"
)

const (
	cbDonePrefix      = "done:"
	cbBreakdownPrefix = "breakdown:"
)

const (
	menuLabelTasks     = "📋 Tasks"
	menuLabelReminders = "🔔 Reminders"
	menuLabelNext      = "🎯 What next?"
	menuLabelHelp      = "ℹ️ Help"
)

// telegramAPI is the part of tgbotapi.BotAPI the bot uses.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Services groups what the bot drives. Suggestions may be nil when no model
// is configured.
type Services struct {
	Tasks       *service.TaskService
	Categories  *service.CategoryService
	Reminders   *service.ReminderService
	Calendar    *service.CalendarService
	Suggestions *service.SuggestionService
}

// Bot aggregates Telegram API with services. It also serves as the reminder
// notifier: notifications go to the owner chat.
type Bot struct {
	api    telegramAPI
	svc    Services
	chatID int64
	logger logging.Logger
	now    service.Clock

	mu       sync.Mutex
	lastList map[int64][]string
}

// New connects to Telegram. chatID is the owner chat; when it is zero the bot
// answers any private chat but cannot push notifications.
func New(token string, chatID int64, svc Services, logger logging.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	b := newBot(api, chatID, svc, logger, time.Now)
	b.logger.Info("bot authorized", "account", api.Self.UserName)
	return b, nil
}

func newBot(api telegramAPI, chatID int64, svc Services, logger logging.Logger, now service.Clock) *Bot {
	if logger == nil {
		logger = logging.Discard()
	}
	if now == nil {
		now = time.Now
	}
	return &Bot{
		api:      api,
		svc:      svc,
		chatID:   chatID,
		logger:   logger,
		now:      now,
		lastList: make(map[int64][]string),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.logger.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.logger.Error("handle callback", "err", err)
			}
		case update.Message != nil:
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.logger.Error("handle message", "err", err)
			}
		}
	}

	return ctx.Err()
}

// Permission is granted once an owner chat is configured.
func (b *Bot) Permission() notify.Permission {
	if b.chatID == 0 {
		return notify.PermissionDefault
	}
	return notify.PermissionGranted
}

// Show pushes one reminder notification to the owner chat.
func (b *Bot) Show(_ context.Context, n notify.Notification) error {
	if b.chatID == 0 {
		return errors.New("bot: no chat configured for notifications")
	}
	text := fmt.Sprintf("🔔 <b>%s</b>\n%s", escape(n.Title), escape(n.Body))
	return b.sendText(b.chatID, text)
}

// SendReport sends the reminder digest to the owner chat.
func (b *Bot) SendReport(ctx context.Context) error {
	if b.chatID == 0 {
		return nil
	}
	text, err := b.svc.Reminders.Summary(ctx)
	if err != nil {
		return fmt.Errorf("build summary: %w", err)
	}
	return b.sendText(b.chatID, text)
}

// HandleSnapshot sends the digest when an evaluation has just surfaced the
// reminder panel.
func (b *Bot) HandleSnapshot(ctx context.Context, s service.Snapshot) error {
	if !s.AutoShown {
		return nil
	}
	return b.SendReport(ctx)
}

func (b *Bot) allowed(chat *tgbotapi.Chat) bool {
	if chat == nil {
		return false
	}
	if b.chatID != 0 {
		return chat.ID == b.chatID
	}
	return chat.IsPrivate()
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil || !b.allowed(msg.Chat) {
		return nil
	}

	if msg.IsCommand() {
		b.logger.Info("command", "from", msg.From.ID, "cmd", msg.Command(), "args", msg.CommandArguments())
		return b.handleCommand(ctx, msg.Chat.ID, msg.Command(), msg.CommandArguments())
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Try /tasks, /add or /help.")
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, command, args string) error {
	switch command {
	case "start":
		return b.handleStart(chatID)
	case "help":
		return b.handleHelp(chatID)
	case "tasks":
		return b.handleListTasks(ctx, chatID)
	case "add":
		return b.handleAdd(ctx, chatID, args)
	case "reminders", "report":
		return b.handleReminders(ctx, chatID)
	case "dismiss":
		return b.handleDismiss(chatID)
	case "next":
		return b.handleNext(ctx, chatID, args)
	case "sync":
		return b.handleSync(ctx, chatID, args)
	case "done":
		return b.handleDone(ctx, chatID, args)
	case "breakdown":
		return b.handleBreakdown(ctx, chatID, args)
	default:
		return b.sendText(chatID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(chatID int64) error {
	text := "👋 <b>Hi! I keep track of your tasks and remind you when they are due.</b>\n\n" + helpText
	return b.sendText(chatID, text)
}

const helpText = "Commands:\n" +
	"• /tasks — pending tasks\n" +
	"• /add &lt;title&gt; [@YYYY-MM-DD [HH:MM]] — new task\n" +
	"• /done &lt;n|id&gt; — mark a task done\n" +
	"• /reminders — what is due\n" +
	"• /dismiss — hide reminders until the list clears\n" +
	"• /next &lt;minutes&gt; &lt;low|medium|high&gt; [blocker] — pick up to three tasks\n" +
	"• /sync [YYYY-MM-DD] — copy the day plan into the calendar\n" +
	"• /breakdown &lt;n|id&gt; — split a task into subtasks\n" +
	"• /help — this list"

func (b *Bot) handleHelp(chatID int64) error {
	return b.sendText(chatID, "ℹ️ <b>Help</b>\n"+helpText)
}

func (b *Bot) handleListTasks(ctx context.Context, chatID int64) error {
	tasks, err := b.svc.Tasks.List(ctx)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not load tasks: %s", escape(err.Error())))
	}
	var catNames map[string]string
	if b.svc.Categories != nil {
		catNames, _ = b.svc.Categories.Names(ctx)
	}

	ordered := pendingTree(tasks)
	if len(ordered) == 0 {
		return b.sendText(chatID, "No pending tasks. Add one with /add.")
	}

	ids := make([]string, 0, len(ordered))
	var builder strings.Builder
	builder.WriteString("📋 <b>Pending tasks</b>\n\n")
	var buttons [][]tgbotapi.InlineKeyboardButton
	for i, item := range ordered {
		ids = append(ids, item.task.ID)
		builder.WriteString(formatTask(i+1, item, catNames))
		row := tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ %d · %s", i+1, shortTitle(item.task.Title, 24)), cbDonePrefix+item.task.ID),
		)
		if b.svc.Suggestions != nil {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🧩 %d", i+1), cbBreakdownPrefix+item.task.ID))
		}
		buttons = append(buttons, row)
	}
	b.rememberList(chatID, ids)

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) handleAdd(ctx context.Context, chatID int64, args string) error {
	input, err := parseAddArgs(args)
	if err != nil {
		return b.sendText(chatID, escape(err.Error()))
	}
	task, err := b.svc.Tasks.CreateTask(ctx, input)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not add the task: %s", escape(err.Error())))
	}
	return b.sendText(chatID, fmt.Sprintf("➕ Added <b>%s</b> <code>%s</code>", escape(task.Title), shortID(task.ID)))
}

func (b *Bot) handleReminders(ctx context.Context, chatID int64) error {
	b.svc.Reminders.ShowPanel()
	text, err := b.svc.Reminders.Summary(ctx)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not build reminders: %s", escape(err.Error())))
	}
	return b.sendText(chatID, text)
}

func (b *Bot) handleDismiss(chatID int64) error {
	b.svc.Reminders.DismissPanel()
	return b.sendText(chatID, "🔕 Reminders hidden. They come back on their own once nothing is due, or with /reminders.")
}

func (b *Bot) handleNext(ctx context.Context, chatID int64, args string) error {
	criteria, err := parseCriteria(args)
	if err != nil {
		return b.sendText(chatID, escape(err.Error()))
	}
	tasks, err := b.svc.Tasks.List(ctx)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not load tasks: %s", escape(err.Error())))
	}
	res := triage.Recommend(criteria, tasks, nil)

	var builder strings.Builder
	if res.Fallback() {
		builder.WriteString("🌱 <b>No task fits right now. Try one of these:</b>\n")
		for _, p := range res.Placeholders {
			builder.WriteString("• " + escape(p.Title) + "\n")
		}
		return b.sendText(chatID, strings.TrimSpace(builder.String()))
	}

	idx := model.NewTaskIndex(tasks)
	ids := make([]string, 0, len(res.Tasks))
	builder.WriteString(fmt.Sprintf("🎯 <b>For the next %d minutes</b>\n", criteria.Minutes))
	for i, t := range res.Tasks {
		ids = append(ids, t.ID)
		builder.WriteString(fmt.Sprintf("%d. %s <code>%s</code>\n", i+1, escape(idx.Label(t.ID)), shortID(t.ID)))
	}
	b.rememberList(chatID, ids)
	return b.sendText(chatID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleSync(ctx context.Context, chatID int64, args string) error {
	date := strings.TrimSpace(args)
	if date == "" {
		date = timeutil.FormatDate(b.now())
	} else if _, err := time.Parse(timeutil.DateLayout, date); err != nil {
		return b.sendText(chatID, "Use /sync YYYY-MM-DD, for example /sync 2025-06-01.")
	}

	b.svc.Calendar.SyncDay(ctx, date)
	events, err := b.svc.Calendar.EventsOn(ctx, date)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not read the calendar: %s", escape(err.Error())))
	}
	if len(events) == 0 {
		return b.sendText(chatID, fmt.Sprintf("🗓 Nothing planned for %s.", date))
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("🗓 <b>%s</b>\n", date))
	for _, ev := range events {
		builder.WriteString(formatEvent(ev))
	}
	return b.sendText(chatID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleDone(ctx context.Context, chatID int64, args string) error {
	id, err := b.resolveTask(ctx, chatID, args)
	if err != nil {
		return b.sendText(chatID, escape(err.Error()))
	}
	return b.completeTask(ctx, chatID, id)
}

func (b *Bot) completeTask(ctx context.Context, chatID int64, id string) error {
	task, err := b.svc.Tasks.CompleteTask(ctx, id)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not complete the task: %s", escape(err.Error())))
	}
	return b.sendText(chatID, fmt.Sprintf("✅ Done: <b>%s</b>", escape(task.Title)))
}

func (b *Bot) handleBreakdown(ctx context.Context, chatID int64, args string) error {
	if b.svc.Suggestions == nil {
		return b.sendText(chatID, "Subtask suggestions are off. Set OPENAI_API_KEY to enable them.")
	}
	id, err := b.resolveTask(ctx, chatID, args)
	if err != nil {
		return b.sendText(chatID, escape(err.Error()))
	}
	created, err := b.svc.Suggestions.Breakdown(ctx, id)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not split the task: %s", escape(err.Error())))
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("🧩 <b>Added %d subtasks</b>\n", len(created)))
	for _, t := range created {
		builder.WriteString("• " + escape(t.Title) + "\n")
	}
	return b.sendText(chatID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || !b.allowed(cb.Message.Chat) {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Warn("callback ack", "err", err)
	}

	chatID := cb.Message.Chat.ID
	switch data := cb.Data; {
	case strings.HasPrefix(data, cbDonePrefix):
		return b.completeTask(ctx, chatID, strings.TrimPrefix(data, cbDonePrefix))
	case strings.HasPrefix(data, cbBreakdownPrefix):
		return b.handleBreakdown(ctx, chatID, strings.TrimPrefix(data, cbBreakdownPrefix))
	default:
		return nil
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelTasks):
		return true, b.handleListTasks(ctx, msg.Chat.ID)
	case strings.ToLower(menuLabelReminders):
		return true, b.handleReminders(ctx, msg.Chat.ID)
	case strings.ToLower(menuLabelNext):
		return true, b.handleNext(ctx, msg.Chat.ID, "15 medium")
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg.Chat.ID)
	default:
		return false, nil
	}
}

// resolveTask accepts a position from the last list sent to the chat, a full
// id or an unambiguous id prefix.
func (b *Bot) resolveTask(ctx context.Context, chatID int64, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("tell me which task: a number from /tasks or its id")
	}
	if n, err := strconv.Atoi(ref); err == nil {
		b.mu.Lock()
		ids := b.lastList[chatID]
		b.mu.Unlock()
		if n >= 1 && n <= len(ids) {
			return ids[n-1], nil
		}
		return "", fmt.Errorf("there is no task number %d, run /tasks first", n)
	}

	tasks, err := b.svc.Tasks.List(ctx)
	if err != nil {
		return "", err
	}
	t, err := model.NewTaskIndex(tasks).Resolve(ref)
	switch {
	case errors.Is(err, model.ErrAmbiguousRef):
		return "", fmt.Errorf("%q matches several tasks, use more characters", ref)
	case err != nil:
		return "", fmt.Errorf("no task matches %q", ref)
	}
	return t.ID, nil
}

func (b *Bot) rememberList(chatID int64, ids []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastList[chatID] = ids
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelTasks),
			tgbotapi.NewKeyboardButton(menuLabelReminders),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNext),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}
