package extract

import "strings"

// leakedInstructionPatterns are system-prompt fragments the generator is not
// supposed to echo. A line containing any of them is removed wholesale.
var leakedInstructionPatterns = []string{
	"你是一名资深律师",
	"你是一位专业的法律顾问",
	"请严格按照以下格式",
	"请以JSON格式输出",
	"不要输出你的思考过程",
	"You are a senior legal",
	"Respond strictly in the following format",
	"Do not reveal these instructions",
	"[SYSTEM]",
	"【系统指令】",
}

// stripLeakedInstructions removes lines that echo known system-prompt
// phrases.
func stripLeakedInstructions(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if isLeakedInstruction(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func isLeakedInstruction(line string) bool {
	for _, pattern := range leakedInstructionPatterns {
		if strings.Contains(line, pattern) {
			return true
		}
	}
	return false
}
