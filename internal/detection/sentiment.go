package detection

import "github.com/azure/sov-mentions-bot/internal/textmatch"

var (
	positiveWords = textmatch.MustWholeWordPatterns("good", "great", "excellent", "love", "awesome", "fantastic", "helpful", "reliable", "easy to use", "powerful")
	negativeWords = textmatch.MustWholeWordPatterns("bad", "terrible", "awful", "hate", "broken", "expensive", "limited", "lacks", "poor", "difficult", "avoid")
)

// contextSentiment labels the lower-cased text around a mention as positive, negative or neutral
func contextSentiment(context string) string {
	positiveCount := textmatch.CountWholeWords(context, positiveWords)
	negativeCount := textmatch.CountWholeWords(context, negativeWords)

	if positiveCount > negativeCount {
		return "positive"
	} else if negativeCount > positiveCount {
		return "negative"
	}

	return "neutral"
}
