package vision

// DefaultPrompt asks the model for a faithful transcription plus structured
// descriptions of any non-text content.
const DefaultPrompt = `Extract ALL content from this image, including:
- All text, printed and handwritten
- All diagrams, charts and graphs, described in detail
- All tables with their exact structure
- Mathematical equations and formulas
- Any annotations, notes or markings

Preserve the original structure and formatting as much as possible.
For diagrams and images, describe:
- The type of diagram (flowchart, graph, chart, etc.)
- Every label, legend and annotation
- Relationships between elements
- Colors, shapes and other visual elements
- Data points and values

DO NOT use numbered lists or bullet point numbering. Present information naturally without line numbers.`
