package registry

// captionPrompt asks for plain prose. Generation is sampled by the model, so
// two runs over the same image may word the caption differently.
const captionPrompt = `Describe this photograph in one short natural sentence.
Mention the main subject and the setting. Plain text only, no quotes, no lists.`

// detectPrompt constrains the model to a JSON object list with normalized
// boxes. Coordinates come back in [0,1] and are scaled to pixels afterwards.
const detectPrompt = `You are an object detector.

Return JSON only, in exactly this shape:
{"objects":[{"label":"string","confidence":0.0,"box":{"x":0.0,"y":0.0,"w":0.0,"h":0.0}}]}

HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels).
- List every clearly visible object, most prominent first, at most 10.
- confidence is your certainty in [0,1].
- Labels: lowercase, one or two words, no punctuation.
- If nothing is identifiable, return {"objects":[]}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// ocrPrompt covers both "no text" and "text present but unreadable": the
// model may set has_text true with an empty text field.
const ocrPrompt = `You are a text reader for photographs.

Return JSON only, in exactly this shape:
{"has_text": false, "text": ""}

HARD RULES
- has_text is true if any written text is visible in the image.
- text contains the transcribed text, lines joined with newlines.
- If text is visible but unreadable, set has_text true and text to "".
- JSON only. No markdown, no code fences, no comments.`
