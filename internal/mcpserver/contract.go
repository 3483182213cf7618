package mcpserver

// DiagramFormatContract describes the canonical Mermaid diagram format
// that LLM consumers should follow when creating or updating diagrams.
const DiagramFormatContract = `# Sigil Diagram Format Contract

Every diagram stored in Sigil is raw Mermaid source. No markdown, no
code fences, no surrounding prose.

## Supported grammars

The first line of the diagram selects the grammar. One of:

- ` + "`flowchart`" + ` (or ` + "`graph`" + `) — flowcharts, ` + "`flowchart TD`" + ` / ` + "`flowchart LR`" + `
- ` + "`sequenceDiagram`" + ` — message sequences between participants
- ` + "`classDiagram`" + ` — class structures and relations
- ` + "`stateDiagram-v2`" + ` — state machines
- ` + "`erDiagram`" + ` — entity-relationship models
- ` + "`gantt`" + ` — schedules
- ` + "`pie`" + ` — pie charts
- ` + "`journey`" + ` — user journeys
- ` + "`gitGraph`" + ` — commit graphs
- ` + "`mindmap`" + ` — mind maps
- ` + "`timeline`" + ` — chronologies

## Rules

1. **Raw Mermaid only.** The content MUST start with a grammar keyword.
   Never wrap the source in ` + "```" + ` fences.
2. **One diagram per document.** A single grammar declaration per file.
3. **Encoding** is UTF-8. Unicode labels are fine; quote labels that
   contain spaces or punctuation.
4. **Names** are free-form display text and need not be unique; the id
   assigned at creation is the stable reference.
5. **Updates replace the whole source.** Partial edits are not possible;
   the previous source is retained automatically as a version snapshot.

## Example

` + "```" + `
flowchart TD
  client[Browser] --> lb[Load balancer]
  lb --> web1[Web 1]
  lb --> web2[Web 2]
  web1 --> db[(Postgres)]
  web2 --> db
` + "```" + `

(The fences above delimit this example only — store the inner text.)
`
