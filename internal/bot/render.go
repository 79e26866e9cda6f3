package bot

import (
    "fmt"
    "strings"
    "time"

    tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

    "quotebot/internal/dispatch"
)

// Keyboard labels and callback payloads. The labels double as the routing
// keys for plain-text taps on the reply keyboard.
const (
    labelCNY    = "🇨🇳 U兌人民幣"
    labelU2TW   = "🇹🇼 U兌台幣"
    labelTW2U   = "💰 台幣兌U"
    labelTW2CNY = "💱 台幣兌人民幣"
    labelKRW2U  = "🇰🇷 U兌韓元"
)

const (
    textWelcome = "✅ **KK 匯率報價助手已就緒**\n━━━━━━━━━━━━━━━\n選擇查詢項目或直接聯絡『可愛的米果』@nk5219 🤝"

    textUnavailable      = "⚠️ **數據獲取失敗**，請稍後再試。"
    textPermissionDenied = "🚫 此指令僅限管理員使用。"
    textSpreadUsage      = "用法：`/spread 0.4`（數字，可為負數或零）"
    textCostUsage        = "用法：`/cost` 或 `/cost 4.5`（比較價需為數字）"
)

func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
    kb := tgbotapi.NewReplyKeyboard(
        tgbotapi.NewKeyboardButtonRow(
            tgbotapi.NewKeyboardButton(labelCNY),
            tgbotapi.NewKeyboardButton(labelTW2CNY),
        ),
        tgbotapi.NewKeyboardButtonRow(
            tgbotapi.NewKeyboardButton(labelU2TW),
            tgbotapi.NewKeyboardButton(labelTW2U),
        ),
        tgbotapi.NewKeyboardButtonRow(
            tgbotapi.NewKeyboardButton(labelKRW2U),
        ),
    )
    kb.ResizeKeyboard = true
    return kb
}

func switchKeyboard() tgbotapi.InlineKeyboardMarkup {
    return tgbotapi.NewInlineKeyboardMarkup(
        tgbotapi.NewInlineKeyboardRow(
            tgbotapi.NewInlineKeyboardButtonData(labelCNY, "switch_cny"),
            tgbotapi.NewInlineKeyboardButtonData(labelU2TW, "switch_u2tw"),
        ),
        tgbotapi.NewInlineKeyboardRow(
            tgbotapi.NewInlineKeyboardButtonData(labelTW2U, "switch_tw2u"),
            tgbotapi.NewInlineKeyboardButtonData(labelTW2CNY, "switch_tw2cny"),
        ),
        tgbotapi.NewInlineKeyboardRow(
            tgbotapi.NewInlineKeyboardButtonData(labelKRW2U, "switch_krw2u"),
        ),
    )
}

func modeForLabel(text string) (dispatch.Mode, bool) {
    switch {
    case strings.Contains(text, labelCNY):
        return dispatch.ModeCNY, true
    case strings.Contains(text, labelU2TW):
        return dispatch.ModeU2TW, true
    case strings.Contains(text, labelTW2U):
        return dispatch.ModeTW2U, true
    case strings.Contains(text, labelTW2CNY):
        return dispatch.ModeTW2CNY, true
    case strings.Contains(text, labelKRW2U):
        return dispatch.ModeKRW2U, true
    }
    return "", false
}

func modeForCallback(data string) (dispatch.Mode, bool) {
    switch data {
    case "switch_cny":
        return dispatch.ModeCNY, true
    case "switch_u2tw":
        return dispatch.ModeU2TW, true
    case "switch_tw2u":
        return dispatch.ModeTW2U, true
    case "switch_tw2cny":
        return dispatch.ModeTW2CNY, true
    case "switch_krw2u":
        return dispatch.ModeKRW2U, true
    }
    return "", false
}

func renderResult(res dispatch.Result, now time.Time) string {
    stamp := now.Format("2006-01-02 15:04:05")
    switch res.Mode {
    case dispatch.ModeCNY:
        return fmt.Sprintf(
            "📊 **報價結果：🇨🇳 USDT 兌 人民幣**\n🕒 查詢時間：`%s`\n━━━━━━━━━━━━━━━\n\n💹 **即時報價：%s CNY**\n🧾 參考商家：%s\n\n📌 *來源：幣安 P2P (第3檔)*",
            stamp, res.Price, res.Advertiser)
    case dispatch.ModeU2TW:
        return fmt.Sprintf(
            "📊 **報價結果：🇹🇼 USDT 兌 台幣**\n🕒 查詢時間：`%s`\n━━━━━━━━━━━━━━━\n\n💹 **即時報價：%s TWD**\n\n📌 *報價僅供參考。*",
            stamp, res.Price)
    case dispatch.ModeTW2U:
        return fmt.Sprintf(
            "📊 **報價結果：💰 台幣 兌 USDT**\n🕒 查詢時間：`%s`\n━━━━━━━━━━━━━━━\n\n💹 **即時報價：%s TWD**\n\n📌 *報價僅供參考。*",
            stamp, res.Price)
    case dispatch.ModeTW2CNY:
        return fmt.Sprintf(
            "📊 **報價結果：💱 台幣 兌 人民幣**\n🕒 查詢時間：`%s`\n━━━━━━━━━━━━━━━\n\n💹 **換算匯率：%s**\n(每 1 人民幣 約需 %s 台幣)\n\n📌 *備註：是以USDT 本位計算之結果*",
            stamp, res.Price, res.Price)
    case dispatch.ModeKRW2U:
        return fmt.Sprintf(
            "📊 **報價結果：🇰🇷 USDT 兌 韓元**\n🕒 查詢時間：`%s`\n━━━━━━━━━━━━━━━\n\n💹 **即時報價：%s KRW**\n💵 現金手續費含價：%s KRW\n\n📌 *報價僅供參考。*",
            stamp, res.Price, res.Surcharge)
    case dispatch.ModeCost:
        return renderCost(res, stamp)
    }
    return textUnavailable
}

func renderCost(res dispatch.Result, stamp string) string {
    out := fmt.Sprintf("🔍 **成本診斷**\n🕒 查詢時間：`%s`\n━━━━━━━━━━━━━━━\n\n💹 目前成本匯率：`%s`", stamp, res.Price)
    if res.Bench != nil {
        out += "\n\n" + renderComparison("🏦 台銀中價", res.Bench)
    }
    if res.Manual != nil {
        out += "\n\n" + renderComparison("✏️ 指定比較價", res.Manual)
    }
    return out
}

func renderComparison(title string, c *dispatch.Comparison) string {
    label := "折價"
    if c.Premium {
        label = "溢價"
    }
    return fmt.Sprintf("%s `%s`\n差額：`%s`（%s %s%%）", title, c.Reference, c.Diff, label, c.Pct)
}

func renderSpreadSet(v float64) string {
    return fmt.Sprintf("✅ 匯差已更新為 `%g`（重啟後恢復預設值）", v)
}

func renderNewUser(u *tgbotapi.User) string {
    name := u.FirstName
    if u.LastName != "" {
        name += " " + u.LastName
    }
    return fmt.Sprintf("📣 **新用戶通知**\n👤 %s\n🆔 `%d`\n@%s", name, u.ID, u.UserName)
}
