package ai

import "github.com/zhouzirui/z-honeypot/backend/internal/model/chat"

// NeutralReply is sent once to counterparts that do not look like scammers.
const NeutralReply = "Sorry, I think you may have the wrong number. Take care."

var fallbackReplies = map[chat.State][]string{
	chat.StateEngaged: {
		"Oh dear, I did not understand fully. Can you explain again slowly?",
		"Which account are you talking about? I have two, please tell me the details.",
		"Okay okay, but where exactly should I send it? Please give me the full details.",
		"Is this the official number? What is your name and employee ID?",
	},
	chat.StateStalling: {
		"Wait, my phone is very slow. Can you send the details once more?",
		"I am trying but the app is showing some error. Is there another account or UPI I can use?",
		"Sorry, someone was at the door. What was the number again?",
		"My glasses are not here, please type it again, I will note it down.",
	},
	chat.StateConcluding: {
		"I am going to the bank branch tomorrow morning, please give me an alternate number in case this one is busy.",
		"Let me ask my son when he comes home, what is the best number to reach you?",
		"It is getting late here. Can you send everything in one message so I do not forget?",
	},
	chat.StateClosed: {
		"I have to go now, I will call you back later. Thank you.",
		"My son has come home, I will talk to you tomorrow. Bye.",
	},
}

// Fallback returns the canned reply for state, rotating through the set by turn.
func Fallback(state chat.State, turn int) string {
	replies, ok := fallbackReplies[state]
	if !ok || len(replies) == 0 {
		replies = fallbackReplies[chat.StateStalling]
	}
	if turn < 0 {
		turn = 0
	}
	return replies[turn%len(replies)]
}
