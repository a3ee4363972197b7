package human

import "fmt"

// transformOutput implements §4.6's output transformation rules:
//   - a matched quick-action id maps to its declared value
//   - an object with a "selected" key equal to a known action id selects
//     that action: alone, it maps to the action's declared value; with
//     other keys, those keys are returned with the value under "value"
//   - anything else is treated as a form submission and returned as its
//     raw field map, subject to per-field validation
func transformOutput(cfg TaskConfig, payload any) (any, error) {
	switch p := payload.(type) {
	case string:
		for _, qa := range cfg.QuickActions {
			if qa.ID == p {
				return qa.Value, nil
			}
		}
		return nil, fmt.Errorf("unknown quick action %q", p)

	case map[string]any:
		if selected, ok := p["selected"].(string); ok {
			for _, qa := range cfg.QuickActions {
				if qa.ID == selected {
					if len(p) == 1 {
						return qa.Value, nil
					}
					merged := make(map[string]any, len(p))
					for k, v := range p {
						if k != "selected" {
							merged[k] = v
						}
					}
					merged["value"] = qa.Value
					return merged, nil
				}
			}
			return nil, fmt.Errorf("unknown selected action %q", selected)
		}

		if cfg.Validate != nil {
			if err := cfg.Validate(p); err != nil {
				return nil, err
			}
		}
		return p, nil

	default:
		return payload, nil
	}
}
