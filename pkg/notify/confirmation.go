package notify

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	dateLayout = "02/01/2006"
	timeLayout = "15:04"
)

// Confirmation данные для сообщения о подтверждении записи
type Confirmation struct {
	ClientName       string
	ServiceName      string
	StartAt          time.Time
	ProfessionalName string
}

// ComposeConfirmation формирует текст подтверждения записи для клиента (pt-BR)
// Время выводится в часовом поясе loc; nil означает UTC
func ComposeConfirmation(c Confirmation, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	start := c.StartAt.In(loc)

	var b strings.Builder
	fmt.Fprintf(&b, "Olá %s! 👋\n\n", c.ClientName)
	b.WriteString("Confirmando seu agendamento:\n")
	fmt.Fprintf(&b, "📅 Data: %s\n", start.Format(dateLayout))
	fmt.Fprintf(&b, "⏰ Horário: %s\n", start.Format(timeLayout))
	fmt.Fprintf(&b, "💇 Serviço: %s\n", c.ServiceName)
	fmt.Fprintf(&b, "👨‍💼 Profissional: %s\n\n", c.ProfessionalName)
	b.WriteString("Nos vemos em breve! 😊")

	return b.String()
}

// EncodeForLink кодирует сообщение для ссылки wa.me (пробелы как %20, а не +)
func EncodeForLink(message string) string {
	return strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
}
