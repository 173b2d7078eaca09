package answer

import "fmt"

func buildLocalPrompt(question, context string) string {
	return fmt.Sprintf(`You are a helpful news assistant.
Answer the following question based on the context below.
Question: %s

Context:
%s

Answer:`, question, context)
}

func buildWebPrompt(question, webContext string) string {
	return fmt.Sprintf(`You are a helpful news assistant.
Answer the following question based on the latest web results below.
Question: %s

Context:
%s

Answer:`, question, webContext)
}
