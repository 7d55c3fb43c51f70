package main

import (
	"io/ioutil"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

const defaultBandwidth = 1000000

/**
how to produce one preset with ffmpeg. Args go between the input and the output file.
Bandwidth is only used when the preset is part of an HLS playlist
*/
type PresetSettings struct {
	Args      []string `yaml:"args"`
	Bandwidth int      `yaml:"bandwidth"`
}

type Presets map[string]PresetSettings

func ParsePresets(content []byte) (Presets, error) {
	var p Presets
	if err := yaml.Unmarshal(content, &p); err != nil {
		return nil, err
	}
	return p, nil
}

func LoadPresets(fileName string) (Presets, error) {
	content, readErr := ioutil.ReadFile(fileName)
	if readErr != nil {
		log.Printf("Could not read presets from '%s': %s", fileName, readErr)
		return nil, readErr
	}
	return ParsePresets(content)
}

func (p Presets) BandwidthFor(presetId string) int {
	if settings, found := p[presetId]; found && settings.Bandwidth > 0 {
		return settings.Bandwidth
	}
	return defaultBandwidth
}
