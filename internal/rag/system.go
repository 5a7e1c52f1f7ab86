package rag

// InsufficientAnswer is the literal the synthesis prompt instructs the
// model to lead with when the retrieved context cannot support an
// answer. Clients key off this exact string.
const InsufficientAnswer = "Insufficient context."

const rewriteSystem = `Rewrite the user's latest question so it is fully self-contained, resolving pronouns and references using the conversation so far.
Return ONLY the rewritten question, with no explanations and no quotes.
If the question is already self-contained, return it unchanged.`

const expandSystem = `Generate alternative phrasings of the given search query for a wiki search engine.
Return ONLY the phrasings, one per line, with no numbering, bullets, or explanations.
Each phrasing should use different wording while preserving the meaning.`

const synthesisSystem = `You are a careful wiki assistant. Answer the question using ONLY the provided context.
If the context is insufficient to answer, reply with exactly "` + InsufficientAnswer + `" followed by one concise follow-up question that would help.
Be brief and factual. Cite the articles you drew from as [Title].`
