package weather

// Snapshot is an immutable view of current conditions for one city, already
// formatted for display. Exactly one of the two shapes is populated: either
// the value fields or Err, never both.
type Snapshot struct {
	City        string `json:"city,omitempty"`
	Temperature string `json:"temperature,omitempty"`
	Description string `json:"description,omitempty"`
	Humidity    string `json:"humidity,omitempty"`
	WindSpeed   string `json:"wind_speed,omitempty"`

	Err string `json:"error,omitempty"`
}

// Failed reports whether the snapshot carries an error instead of data.
func (s Snapshot) Failed() bool {
	return s.Err != ""
}

// errorSnapshot builds the error shape.
func errorSnapshot(msg string) Snapshot {
	return Snapshot{Err: msg}
}
