package bot

import (
	"fmt"
	"strings"
)

// RiddlePromptMarker identifies a riddle prompt when a user quotes it
const RiddlePromptMarker = "🧠 *Riddle Time!*"

func riddlePrompt(question string) string {
	return fmt.Sprintf("%s\n\n❓ %s\n\n💡 Reply to this message with your answer!", RiddlePromptMarker, question)
}

func correctText(answer string) string {
	return fmt.Sprintf("✅ *Correct!*\n\nThe answer is indeed: \"%s\"\n\nWell done! 🎉", answer)
}

func incorrectText(prefix string) string {
	return fmt.Sprintf("❌ That's not correct. Try again or send \"%sriddlehint\" for a hint.", prefix)
}

func hintText(mask string) string {
	return "🔍 *Hint*: " + mask
}

func revealText(answer string) string {
	return fmt.Sprintf("🔓 The answer to the riddle is: \"%s\"", answer)
}

func noRiddleText(prefix string) string {
	return fmt.Sprintf("❓ There's no active riddle. Try sending \"%sriddle\" first!", prefix)
}

func noHintText(prefix string) string {
	return fmt.Sprintf("❓ There's no active riddle to hint for. Try sending \"%sriddle\" first!", prefix)
}

func solvedText(prefix string) string {
	return fmt.Sprintf("✅ This riddle is already solved. Send \"%sriddle\" for a new one!", prefix)
}

const (
	fetchFailedText = "❌ Couldn't fetch a riddle right now. Try again later!"
	pongText        = "🏓 Pong!"
)

func helpText(prefix string, cmds []command) string {
	var b strings.Builder
	b.WriteString("📌 *Commands*\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "\n• %s%s - %s", prefix, c.name, c.usage)
	}
	return b.String()
}
