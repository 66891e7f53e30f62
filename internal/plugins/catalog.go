package plugins

import (
	"fmt"

	"modelhub/internal/backend"
)

type ggufModel struct {
	name        string
	display     string
	params      string
	quant       string
	bits        int
	repo        string
	file        string
	contextLen  int
	sizeGB      float64
	minGB       float64
	recommended float64
	description string
	tags        []string
	aliases     []string
}

var coderLanguages = []string{
	"python", "go", "javascript", "typescript", "rust", "java", "c", "cpp", "csharp", "bash",
}

// Published checksums are not pinned here; supply them via model_checksums
// in the config or download with --force.
var ggufCatalog = []ggufModel{
	{
		name:        "qwen2.5-coder-1.5b",
		display:     "Qwen 2.5 Coder 1.5B Instruct (Q4_K_M)",
		params:      "1.5B",
		quant:       "Q4_K_M",
		bits:        4,
		repo:        "Qwen/Qwen2.5-Coder-1.5B-Instruct-GGUF",
		file:        "qwen2.5-coder-1.5b-instruct-q4_k_m.gguf",
		contextLen:  32768,
		sizeGB:      1.1,
		minGB:       2,
		recommended: 3,
		description: "Smallest coder; runs on almost any laptop.",
		tags:        []string{"coding", "fast"},
		aliases:     []string{"qwen-coder-small"},
	},
	{
		name:        "qwen2.5-coder-3b",
		display:     "Qwen 2.5 Coder 3B Instruct (Q4_K_M)",
		params:      "3B",
		quant:       "Q4_K_M",
		bits:        4,
		repo:        "Qwen/Qwen2.5-Coder-3B-Instruct-GGUF",
		file:        "qwen2.5-coder-3b-instruct-q4_k_m.gguf",
		contextLen:  32768,
		sizeGB:      1.9,
		minGB:       4,
		recommended: 6,
		description: "Fast, efficient coding model for systems with limited RAM.",
		tags:        []string{"coding", "fast", "efficient"},
		aliases:     []string{"qwen-coder"},
	},
	{
		name:        "qwen2.5-coder-7b",
		display:     "Qwen 2.5 Coder 7B Instruct (Q5_K_M)",
		params:      "7B",
		quant:       "Q5_K_M",
		bits:        5,
		repo:        "Qwen/Qwen2.5-Coder-7B-Instruct-GGUF",
		file:        "qwen2.5-coder-7b-instruct-q5_k_m.gguf",
		contextLen:  32768,
		sizeGB:      5.1,
		minGB:       10,
		recommended: 12,
		description: "Balanced performance and quality for coding tasks.",
		tags:        []string{"coding", "balanced"},
		aliases:     []string{"qwen-coder-7b"},
	},
	{
		name:        "qwen2.5-coder-14b",
		display:     "Qwen 2.5 Coder 14B Instruct (Q5_K_M)",
		params:      "14B",
		quant:       "Q5_K_M",
		bits:        5,
		repo:        "Qwen/Qwen2.5-Coder-14B-Instruct-GGUF",
		file:        "qwen2.5-coder-14b-instruct-q5_k_m.gguf",
		contextLen:  32768,
		sizeGB:      9.8,
		minGB:       18,
		recommended: 24,
		description: "High-quality coding assistance for systems with ample RAM.",
		tags:        []string{"coding", "high-quality", "large"},
		aliases:     []string{"qwen-coder-large"},
	},
}

func (g ggufModel) descriptor(checksum string) backend.Descriptor {
	bits := g.bits
	return backend.Descriptor{
		Metadata: backend.Metadata{
			Name:            g.name,
			DisplayName:     g.display,
			Description:     g.description,
			Version:         g.params + "-" + g.quant,
			Author:          "Qwen",
			License:         "apache-2.0",
			Homepage:        "https://huggingface.co/" + g.repo,
			DownloadURL:     fmt.Sprintf("https://huggingface.co/%s/resolve/main/%s", g.repo, g.file),
			SHA256:          checksum,
			Tags:            g.tags,
			Format:          backend.FormatGGUF,
			FilenamePattern: g.file,
		},
		Capabilities: backend.Capabilities{
			SupportedLanguages: coderLanguages,
			MaxContextLength:   g.contextLen,
			MinMemoryGB:        g.minGB,
			RecommendedMemGB:   g.recommended,
			SupportsGPU:        true,
			ModelSizeGB:        g.sizeGB,
			QuantizationBits:   &bits,
		},
	}
}
