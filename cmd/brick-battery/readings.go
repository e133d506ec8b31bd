package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/OpenBrickProject/brick-battery/battery"
)

// monitorLoop periodically samples the battery for the readings log and
// the D-Bus reading signal, and warns when the voltage drops below the
// design minimum.
func monitorLoop(batt *battery.Battery, s *service, conf *Config) {
	if err := keepLastLines(conf.ReadingsFile, conf.ReadingsMaxLines); err != nil {
		log.Printf("could not truncate readings file: %v", err)
	}
	lastTruncate := time.Now()

	ticker := time.NewTicker(conf.SignalInterval)
	defer ticker.Stop()
	for range ticker.C {
		uV, err := batt.VoltageNow()
		if err != nil {
			log.Printf("voltage read failed: %v", err)
			continue
		}
		uA, err := batt.CurrentNow()
		if err != nil {
			log.Printf("current read failed: %v", err)
			continue
		}

		log.Debugf("battery reading: %.3fV %.3fA", float64(uV)/1e6, float64(uA)/1e6)

		if err := logReading(conf.ReadingsFile, uV, uA); err != nil {
			log.Printf("could not log reading: %v", err)
		}
		if err := s.sendReading(uV, uA); err != nil {
			log.Printf("could not send reading signal: %v", err)
		}

		if uV < batt.VoltageMinDesign() {
			log.Warnf("battery voltage %.2fV below design minimum %.2fV",
				float64(uV)/1e6, float64(batt.VoltageMinDesign())/1e6)
		}

		if time.Since(lastTruncate) > 24*time.Hour {
			if err := keepLastLines(conf.ReadingsFile, conf.ReadingsMaxLines); err != nil {
				log.Printf("could not truncate readings file: %v", err)
			} else {
				lastTruncate = time.Now()
			}
		}
	}
}

// logReading appends one timestamped reading to the CSV file.
func logReading(path string, microVolts, microAmps int64) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	// Format: timestamp, microvolts, microamps
	line := fmt.Sprintf("%s, %d, %d",
		time.Now().Format("2006-01-02 15:04:05"), microVolts, microAmps)
	_, err = file.WriteString(line + "\n")
	return err
}

// keepLastLines truncates a file down to its last n lines.
func keepLastLines(path string, n int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) <= n {
		return nil
	}
	trimmed := strings.Join(lines[len(lines)-n:], "\n") + "\n"
	return os.WriteFile(path, []byte(trimmed), 0644)
}
