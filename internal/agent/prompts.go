package agent

import "fmt"

// classificationPromptTemplate asks for a bare "simple" or "complex" label.
const classificationPromptTemplate = `Analyze this financial query and classify it as either "simple" or "complex":

Query: %s

Classification criteria:
- Simple: Single company, single metric, single year (e.g., "What was Microsoft's revenue in 2023?")
- Complex: Multiple companies, comparisons, calculations, or multi-step reasoning required

Examples:
- Simple: "What was NVIDIA's total revenue in 2023?"
- Complex: "Which company had the highest operating margin in 2023?"
- Complex: "How did Microsoft's cloud revenue grow from 2022 to 2023?"

Respond with just "simple" or "complex".`

// decompositionPromptTemplate asks for a JSON array of searchable sub-queries.
const decompositionPromptTemplate = `Break down this complex financial query into specific sub-queries that can be answered independently:

Original Query: %s

Guidelines:
- Create specific, searchable sub-queries
- Focus on concrete financial metrics (revenue, margin, etc.)
- Include company name and year when possible
- For comparisons, create separate queries for each company
- For growth calculations, query both years separately

Examples:
Query: "Which company had the highest operating margin in 2023?"
Sub-queries:
1. Microsoft operating margin 2023
2. Google operating margin 2023
3. NVIDIA operating margin 2023

Query: "How did NVIDIA's data center revenue grow from 2022 to 2023?"
Sub-queries:
1. NVIDIA data center revenue 2022
2. NVIDIA data center revenue 2023

Respond with a JSON array of sub-queries:
["sub-query 1", "sub-query 2", ...]`

// synthesisPromptTemplate demands a strict two-field JSON answer.
const synthesisPromptTemplate = `You are a financial analyst. Based on the search results, answer the question in JSON format.

Question: %s

Search Results:
%s

Instructions:
1. Analyze the search results for relevant financial information
2. Extract specific numbers, percentages, and facts when available
3. If no relevant data is found, state that clearly
4. Respond with ONLY valid JSON in this format:

{"answer": "your detailed answer with specific numbers", "reasoning": "explain how you derived this answer"}

Example response:
{"answer": "Microsoft's total revenue in 2023 was $211.9 billion, representing a 7%% increase from 2022.", "reasoning": "This information was found in Microsoft's 2023 10-K filing in the consolidated statements of income section."}

IMPORTANT: Return ONLY the JSON object, no other text or formatting.`

func classificationPrompt(query string) string {
	return fmt.Sprintf(classificationPromptTemplate, query)
}

func decompositionPrompt(query string) string {
	return fmt.Sprintf(decompositionPromptTemplate, query)
}

func synthesisPrompt(query, context string) string {
	return fmt.Sprintf(synthesisPromptTemplate, query, context)
}
