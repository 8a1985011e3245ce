package chatbot

import (
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = `<b>Что умеет бот</b>

/start — открыть магазин мебели
/shop — ссылка на каталог
/help — эта подсказка

В магазине можно смотреть каталог, искать товары и добавлять их в избранное.`

const hintText = "Я пока не понимаю сообщения 🙂 Нажмите /start, чтобы открыть магазин."

const unknownCommandText = "Неизвестная команда. Наберите /help, чтобы увидеть список команд."

// replyFor builds the answer to a command. from may be nil.
func replyFor(command Command, from *tgbotapi.User) Reply {
	switch command {
	case CommandStart:
		return Reply{Text: greeting(from), WithStorefront: true}
	case CommandShop:
		return Reply{Text: "🛋 Каталог мебели открывается по кнопке ниже.", WithStorefront: true}
	case CommandHelp:
		return Reply{Text: helpText}
	default:
		return Reply{Text: unknownCommandText}
	}
}

func greeting(from *tgbotapi.User) string {
	name := ""
	if from != nil {
		name = strings.TrimSpace(from.FirstName + " " + from.LastName)
		if name == "" {
			name = from.UserName
		}
	}
	if name == "" {
		name = "друг"
	}
	return fmt.Sprintf("Привет, %s! 👋\n\nДобро пожаловать в наш мебельный магазин. Диваны, столы, кресла, шкафы и кровати с доставкой.\n\nНажмите кнопку ниже, чтобы открыть каталог.",
		html.EscapeString(name))
}
