package researcher

import (
	"fmt"

	"github.com/BerylCAtieno/niche-detector/internal/models"
)

func buildPainPointsPrompt(niche models.Niche, language string) string {
	return fmt.Sprintf(`Act as an expert market researcher.
Your task is to analyze the market niche: "%s".

1. Simulate an analysis of discussions on platforms such as Reddit, forums, Amazon and Etsy reviews, and social media comments.
2. Identify the %d most significant and frequently mentioned problems or pain points raised by users.
3. For each problem, provide a direct, verbatim quote that illustrates it.

Write every text value in %s.
Return your answer exclusively as a JSON object with a "painPoints" array that matches the provided schema. Do not include any text outside the JSON.`,
		niche, PainPointCount, language)
}

func buildProductIdeasPrompt(niche models.Niche, p models.PainPoint, language string) string {
	return fmt.Sprintf(`Act as a digital product strategist.
In the market niche of "%s", users face the following problem: "%s", illustrated by this complaint: "%s".

Generate between %d and %d innovative digital product ideas that specifically solve this problem. For each idea, provide a name and a brief description.

Write every text value in %s.
Return your answer exclusively as a JSON object with a "productIdeas" array that matches the provided schema. Do not include any text outside the JSON.`,
		niche, p.Summary, p.Quote, MinProductIdeas, MaxProductIdeas, language)
}

func buildSellingAnglesPrompt(niche models.Niche, p models.PainPoint, idea models.ProductIdea, language string) string {
	return fmt.Sprintf(`Act as an expert copywriter and digital marketer.
The product is: "%s".
Description: "%s".
This product solves the problem of: "%s" for the niche of "%s".

Create %d distinct, persuasive selling angles to promote this product. Each angle must be a phrase or a short paragraph that highlights a key benefit, evokes an emotion, or directly addresses the customer's pain.

Write every text value in %s.
Return your answer exclusively as a JSON object with a "sellingAngles" array of strings that matches the provided schema. Do not include any text outside the JSON.`,
		idea.Name, idea.Description, p.Summary, niche, SellingAngleCount, language)
}
